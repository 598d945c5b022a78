/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Fixed-size binary writer
 */

package main

import (
	"encoding/binary"
)

// BinaryWriter writes big-endian fixed-width integers and raw
// bytes into a buffer of a size known in advance, tracking
// its own write cursor.
//
// Writing past the buffer capacity sets a sticky error
// (ErrShortBuffer). Once an error occurs, all subsequent
// writes do nothing, so the caller needs to check Err only
// once, after the last write.
type BinaryWriter struct {
	buf []byte // Output buffer, allocated once
	off int    // Current write offset
	err error  // Sticky error
}

// NewBinaryWriter creates a new BinaryWriter with exactly size
// bytes of capacity
func NewBinaryWriter(size int) *BinaryWriter {
	return &BinaryWriter{buf: make([]byte, size)}
}

// PutU8 writes a single byte
func (w *BinaryWriter) PutU8(v uint8) {
	if p := w.reserve(1); p != nil {
		p[0] = v
	}
}

// PutU16 writes 16-bit big-endian integer
func (w *BinaryWriter) PutU16(v uint16) {
	if p := w.reserve(2); p != nil {
		binary.BigEndian.PutUint16(p, v)
	}
}

// PutU32 writes 32-bit big-endian integer
func (w *BinaryWriter) PutU32(v uint32) {
	if p := w.reserve(4); p != nil {
		binary.BigEndian.PutUint32(p, v)
	}
}

// PutI32 writes signed 32-bit big-endian integer
func (w *BinaryWriter) PutI32(v int32) {
	w.PutU32(uint32(v))
}

// PutBytes writes raw bytes
func (w *BinaryWriter) PutBytes(data []byte) {
	if p := w.reserve(len(data)); p != nil {
		copy(p, data)
	}
}

// PutString writes string bytes, without length or terminator
func (w *BinaryWriter) PutString(s string) {
	if p := w.reserve(len(s)); p != nil {
		copy(p, s)
	}
}

// Len returns count of bytes written so far
func (w *BinaryWriter) Len() int {
	return w.off
}

// Cap returns the buffer capacity
func (w *BinaryWriter) Cap() int {
	return len(w.buf)
}

// Bytes returns the written part of the buffer
func (w *BinaryWriter) Bytes() []byte {
	return w.buf[:w.off]
}

// Err returns the first error occurred, if any
func (w *BinaryWriter) Err() error {
	return w.err
}

// reserve advances the cursor by n bytes and returns
// the reserved slice, or nil on overflow
func (w *BinaryWriter) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}

	if n > len(w.buf)-w.off {
		w.err = ErrShortBuffer
		return nil
	}

	p := w.buf[w.off : w.off+n]
	w.off += n
	return p
}
