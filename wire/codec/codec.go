/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package codec implements the big-endian primitive encode/decode rules
// SOME/IP payloads are built from: fixed-width integers, IEEE-754
// floats, length-prefixed strings and arrays, and struct concatenation.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/someip-go/someip/someiperr"
)

// Writer appends primitives to an in-memory buffer in wire order.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with buf as its initial backing array.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// Bytes returns everything written so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// PutBool appends a single byte: 0 or 1.
func (w *Writer) PutBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// PutU8 appends a uint8.
func (w *Writer) PutU8(v uint8) { w.buf = append(w.buf, v) }

// PutI8 appends an int8.
func (w *Writer) PutI8(v int8) { w.buf = append(w.buf, byte(v)) }

// PutU16 appends a big-endian uint16.
func (w *Writer) PutU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutI16 appends a big-endian int16.
func (w *Writer) PutI16(v int16) { w.PutU16(uint16(v)) }

// PutU32 appends a big-endian uint32.
func (w *Writer) PutU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutI32 appends a big-endian int32.
func (w *Writer) PutI32(v int32) { w.PutU32(uint32(v)) }

// PutU64 appends a big-endian uint64.
func (w *Writer) PutU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutI64 appends a big-endian int64.
func (w *Writer) PutI64(v int64) { w.PutU64(uint64(v)) }

// PutF32 appends a big-endian IEEE-754 single precision float.
func (w *Writer) PutF32(v float32) { w.PutU32(math.Float32bits(v)) }

// PutF64 appends a big-endian IEEE-754 double precision float.
func (w *Writer) PutF64(v float64) { w.PutU64(math.Float64bits(v)) }

// PutString appends a uint32 byte-length prefix followed by the UTF-8
// bytes of s, unterminated.
func (w *Writer) PutString(s string) {
	w.PutU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutBytes appends a uint32 byte-length prefix followed by raw bytes,
// the array encoding rule for an array of bytes.
func (w *Writer) PutBytes(b []byte) {
	w.PutU32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Raw appends bytes with no length prefix, for struct concatenation.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Reader consumes primitives from a byte slice in wire order, failing
// closed with E_MALFORMED_MESSAGE on any short read.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Pos returns the current read cursor.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return someiperr.New(someiperr.MalformedMessage, "need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// Bool decodes a single byte as a boolean (any nonzero value is true).
func (r *Reader) Bool() (bool, error) {
	if err := r.need(1); err != nil {
		return false, err
	}
	v := r.buf[r.pos] != 0
	r.pos++
	return v, nil
}

// U8 decodes a uint8.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// I8 decodes an int8.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 decodes a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// I16 decodes a big-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 decodes a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// I32 decodes a big-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 decodes a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// I64 decodes a big-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 decodes a big-endian IEEE-754 single precision float.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 decodes a big-endian IEEE-754 double precision float.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// String decodes a uint32 byte-length prefix followed by that many
// UTF-8 bytes. The length prefix is never trusted beyond what remains
// in the buffer: a maliciously large prefix fails closed rather than
// causing an oversized allocation.
func (r *Reader) String() (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Bytes decodes a uint32 byte-length prefix followed by that many raw
// bytes. Same anti-amplification guard as String.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

// Raw decodes n bytes with no length prefix, for struct fields.
func (r *Reader) Raw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without copying.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}
