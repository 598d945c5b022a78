/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common errors
 */

package main

import (
	"errors"
	"fmt"
)

// Error values for ipp-print
var (
	ErrShortBuffer      = errors.New("Output buffer too small")
	ErrAttrTooLong      = errors.New("Attribute name or value exceeds 65535 bytes")
	ErrNoLocation       = errors.New("Redirect without Location header")
	ErrTooManyRedirects = errors.New("Too many redirects")
	ErrShortWrite       = errors.New("Short write")
	ErrBadInput         = errors.New("Invalid input")
	ErrUnknownFormat    = errors.New("Unknown document format")
	ErrUnknownProtocol  = errors.New("Unknown protocol")
)

// ErrorKind classifies a print job failure
type ErrorKind int

// Error kinds:
//
//	ErrKindEncoding        - IPP message can't be encoded
//	ErrKindFormat          - document body can't be produced
//	ErrKindTransportOpen   - HTTP request can't be sent
//	ErrKindRedirectTarget  - redirect without usable Location
//	ErrKindRedirectLoop    - too many redirects
//	ErrKindDownload        - response body can't be read
//	ErrKindSocketConnect   - raw socket connect failed
//	ErrKindSocketSend      - raw socket send failed
const (
	ErrKindUnknown ErrorKind = iota
	ErrKindEncoding
	ErrKindFormat
	ErrKindTransportOpen
	ErrKindRedirectTarget
	ErrKindRedirectLoop
	ErrKindDownload
	ErrKindSocketConnect
	ErrKindSocketSend
)

// String returns ErrorKind name
func (kind ErrorKind) String() string {
	switch kind {
	case ErrKindUnknown:
		return "unknown error"
	case ErrKindEncoding:
		return "encoding failure"
	case ErrKindFormat:
		return "document format failure"
	case ErrKindTransportOpen:
		return "transport open failure"
	case ErrKindRedirectTarget:
		return "redirect target missing"
	case ErrKindRedirectLoop:
		return "redirect loop exceeded"
	case ErrKindDownload:
		return "download failure"
	case ErrKindSocketConnect:
		return "socket connect failure"
	case ErrKindSocketSend:
		return "socket send failure"
	}

	return fmt.Sprintf("unknown (%d)", int(kind))
}

// PrintError represents a failed step of the print job
type PrintError struct {
	Kind ErrorKind // Error kind
	Op   string    // Failed operation, i.e. "POST http://..."
	Err  error     // Underlying error
}

// newPrintError creates a new PrintError
func newPrintError(kind ErrorKind, op string, err error) *PrintError {
	return &PrintError{Kind: kind, Op: op, Err: err}
}

// Error implements error interface for the PrintError
func (err *PrintError) Error() string {
	if err.Op == "" {
		return fmt.Sprintf("%s: %s", err.Kind, err.Err)
	}
	return fmt.Sprintf("%s: %s: %s", err.Kind, err.Op, err.Err)
}

// Unwrap returns the underlying error
func (err *PrintError) Unwrap() error {
	return err.Err
}

// ErrorKindOf returns ErrorKind of the error. Errors that don't
// carry a PrintError in their chain are ErrKindUnknown
func ErrorKindOf(err error) ErrorKind {
	var perr *PrintError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ErrKindUnknown
}
