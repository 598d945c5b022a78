/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP Print-Job message builder
 */

package main

import (
	"math"
	"net/netip"

	"github.com/OpenPrinting/goipp"
)

const (
	// IppVersion is the IPP version of requests we send (1.1)
	IppVersion = 0x0101

	// IppRequestID is the request-id of Print-Job requests
	IppRequestID = 500
)

// IppAttribute represents a single-valued IPP operation attribute
type IppAttribute struct {
	Tag   goipp.Tag // Value tag
	Name  string    // Attribute name
	Value string    // Attribute value
}

// size returns the encoded attribute size
func (attr IppAttribute) size() int {
	// tag + len(name) + name + len(value) + value
	return 1 + 2 + len(attr.Name) + 2 + len(attr.Value)
}

// IppMessage represents IPP request with document data
//
// Only a single (operation) attributes group is supported
type IppMessage struct {
	Version    uint16         // Protocol version
	Operation  uint16         // Operation code
	RequestID  int32          // Request ID
	Attributes []IppAttribute // Operation attributes, in wire order
	Body       []byte         // Document data, sent after attributes
}

// NewPrintJobMessage creates Print-Job request for the printer
// at host, carrying the job's document
func NewPrintJobMessage(host string, job *PrintJob) *IppMessage {
	return &IppMessage{
		Version:    IppVersion,
		Operation:  uint16(goipp.OpPrintJob),
		RequestID:  IppRequestID,
		Attributes: PrintJobAttributes(host, job.Format.MimeType()),
		Body:       job.Body,
	}
}

// PrintJobAttributes returns operation attributes of the Print-Job request
func PrintJobAttributes(host, mimeType string) []IppAttribute {
	return []IppAttribute{
		{goipp.TagMimeType, "document-format", mimeType},
		{goipp.TagCharset, "attributes-charset", "utf-8"},
		{goipp.TagLanguage, "attributes-natural-language", "en"},
		{goipp.TagURI, "printer-uri", IppPrinterURI(host)},
	}
}

// IppPrinterURI returns ipp:// URI of the printer at host
func IppPrinterURI(host string) string {
	return "ipp://" + URLHost(host) + "/ipp/print"
}

// URLHost returns host, as it appears in the URL authority
//
// IPv6 literal addresses are wrapped into brackets. The zone,
// if any, is escaped as %25 (RFC 6874)
func URLHost(host string) string {
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is6() {
		return host
	}

	s := addr.WithZone("").String()
	if zone := addr.Zone(); zone != "" {
		s += "%25" + zone
	}

	return "[" + s + "]"
}

// Size returns the exact size of the encoded message
//
// Wire format:
//
//	2 bytes:  Version
//	2 bytes:  Operation
//	4 bytes:  RequestID
//	1 byte:   TagOperationGroup
//	variable: attributes
//	1 byte:   TagEnd
//	variable: Body
func (m *IppMessage) Size() int {
	size := 2 + 2 + 4 + 1
	for _, attr := range m.Attributes {
		size += attr.size()
	}
	return size + 1 + len(m.Body)
}

// Validate checks that message can be encoded
func (m *IppMessage) Validate() error {
	for _, attr := range m.Attributes {
		if len(attr.Name) > math.MaxUint16 ||
			len(attr.Value) > math.MaxUint16 {
			return ErrAttrTooLong
		}
	}
	return nil
}

// opName returns operation name, for error messages
func (m *IppMessage) opName() string {
	return goipp.Op(m.Operation).String()
}

// Encode encodes the message into the IPP wire format
//
// Output buffer is allocated once, sized by Size()
func (m *IppMessage) Encode() ([]byte, error) {
	err := m.Validate()
	if err != nil {
		return nil, newPrintError(ErrKindEncoding, m.opName(), err)
	}

	w := NewBinaryWriter(m.Size())

	w.PutU16(m.Version)
	w.PutU16(m.Operation)
	w.PutI32(m.RequestID)

	w.PutU8(uint8(goipp.TagOperationGroup))
	for _, attr := range m.Attributes {
		w.PutU8(uint8(attr.Tag))
		w.PutU16(uint16(len(attr.Name)))
		w.PutString(attr.Name)
		w.PutU16(uint16(len(attr.Value)))
		w.PutString(attr.Value)
	}
	w.PutU8(uint8(goipp.TagEnd))

	// Document data follows TagEnd without any framing
	w.PutBytes(m.Body)

	if err = w.Err(); err != nil {
		return nil, newPrintError(ErrKindEncoding, m.opName(), err)
	}

	return w.Bytes(), nil
}
