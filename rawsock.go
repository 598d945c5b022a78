/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Raw socket (port 9100) transport
 */

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// RawSocketTransport sends payload over a fresh TCP connection,
// without reading any response
type RawSocketTransport struct {
	timeout time.Duration // Connect and send timeout, 0 for none
	log     *Logger       // Logger
}

// NewRawSocketTransport creates a new RawSocketTransport
func NewRawSocketTransport(timeout time.Duration, log *Logger) *RawSocketTransport {
	if log == nil {
		log = Log
	}

	return &RawSocketTransport{timeout: timeout, log: log}
}

// SendOnce connects to host:port and writes the whole payload
// in a single blocking write. The connection is closed before
// return. Failed connect is reported, nothing is sent then
func (transport *RawSocketTransport) SendOnce(ctx context.Context,
	host string, port int, payload []byte) error {

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	transport.log.Debug(' ', "connecting to %s", addr)

	dialer := net.Dialer{Timeout: transport.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return newPrintError(ErrKindSocketConnect, "connect "+addr, err)
	}

	defer conn.Close()

	// Bound the write by both timeout and context deadline
	deadline, ok := ctx.Deadline()
	if transport.timeout > 0 {
		if d := time.Now().Add(transport.timeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if ok {
		conn.SetWriteDeadline(deadline)
	}

	// Close connection on context cancellation, so blocked
	// write returns
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	transport.log.Begin().
		Debug(' ', "sending %d bytes to %s", len(payload), addr).
		Dump(LogTraceRaw, payload).
		Commit()

	n, err := conn.Write(payload)
	if err == nil && n != len(payload) {
		err = fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(payload))
	}

	if err != nil {
		return newPrintError(ErrKindSocketSend, "send "+addr, err)
	}

	return nil
}
