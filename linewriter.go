/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * LineWriter splits a byte stream into lines for the logger
 */

package main

import (
	"bytes"
)

// LineWriter implements io.Writer and io.Closer interfaces.
// It splits stream into text lines and calls the Func
// callback for each complete line.
//
// Line passed to callback is not terminated by '\n'.
// Close flushes the last incomplete line, if any
type LineWriter struct {
	Func func([]byte) // write-line callback
	buf  bytes.Buffer // incomplete line
}

// Write implements io.Writer interface
func (lw *LineWriter) Write(text []byte) (n int, err error) {
	n = len(text)

	for {
		l := bytes.IndexByte(text, '\n')
		if l < 0 {
			lw.buf.Write(text)
			return
		}

		line := text[:l]
		text = text[l+1:]

		if lw.buf.Len() > 0 {
			lw.buf.Write(line)
			line = lw.buf.Bytes()
		}

		lw.Func(line)
		lw.buf.Reset()
	}
}

// Close implements io.Closer interface
//
// Without Close, the last incomplete line is lost
func (lw *LineWriter) Close() error {
	if lw.buf.Len() > 0 {
		lw.Func(lw.buf.Bytes())
		lw.buf.Reset()
	}
	return nil
}
