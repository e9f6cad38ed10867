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

package codec

import (
	"testing"

	"github.com/someip-go/someip/someiperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter(nil)
	w.PutBool(true)
	w.PutU8(0x7f)
	w.PutI8(-3)
	w.PutU16(0xBEEF)
	w.PutI16(-1000)
	w.PutU32(0xDEADBEEF)
	w.PutI32(-70000)
	w.PutU64(0x0102030405060708)
	w.PutI64(-1)
	w.PutF32(3.5)
	w.PutF64(2.71828)
	w.PutString("someip")
	w.PutBytes([]byte{1, 2, 3})
	w.Raw([]byte{0xAA, 0xBB})

	r := NewReader(w.Bytes())

	b, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), u8)

	i8, err := r.I8()
	require.NoError(t, err)
	assert.Equal(t, int8(-3), i8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	i16, err := r.I16()
	require.NoError(t, err)
	assert.Equal(t, int16(-1000), i16)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i32, err := r.I32()
	require.NoError(t, err)
	assert.Equal(t, int32(-70000), i32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	i64, err := r.I64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), i64)

	f32, err := r.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	f64, err := r.F64()
	require.NoError(t, err)
	assert.Equal(t, 2.71828, f64)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "someip", s)

	bs, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, bs)

	raw, err := r.Raw(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, raw)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderFailsClosedOnShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, err := r.U32()
	require.Error(t, err)
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))
}

func TestReaderRejectsOversizeLengthPrefix(t *testing.T) {
	w := NewWriter(nil)
	w.PutU32(1 << 20)
	w.Raw([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	_, err := r.String()
	require.Error(t, err)
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))
}

func TestSkipAdvancesCursorWithoutCopying(t *testing.T) {
	w := NewWriter(nil)
	w.PutU16(1)
	w.PutU16(2)

	r := NewReader(w.Bytes())
	require.NoError(t, r.Skip(2))
	assert.Equal(t, 2, r.Pos())

	v, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), v)
}

func TestWriterReusesBackingArray(t *testing.T) {
	backing := make([]byte, 0, 8)
	w := NewWriter(backing)
	w.PutU32(42)
	assert.Len(t, w.Bytes(), 4)
	assert.Same(t, &backing[:1][0], &w.Bytes()[0])
}
