// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"encoding/binary"
	"math"
)

// reader is a big-endian cursor over the class file image. Every read
// advances the cursor; a read past the end of the image fails with
// ErrTruncated and leaves the cursor untouched.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// offset returns the current cursor position, used to bracket attribute
// handlers against their declared length.
func (r *reader) offset() int {
	return r.pos
}

func (r *reader) readU8() (uint8, error) {
	if r.pos+1 > len(r.data) {
		return 0, ErrTruncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readU16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) readU32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) readI32() (int32, error) {
	v, err := r.readU32()
	return int32(v), err
}

func (r *reader) readI64() (int64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return int64(v), nil
}

// readF32 reads an IEEE-754 single built from the big-endian bit pattern.
func (r *reader) readF32() (float32, error) {
	v, err := r.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) readF64() (float64, error) {
	v, err := r.readI64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// readBytes returns an exact-length slice of the underlying image. The slice
// aliases the image; callers that retain it past Close must copy.
func (r *reader) readBytes(n uint32) ([]byte, error) {
	end := r.pos + int(n)
	if end < r.pos || end > len(r.data) {
		return nil, ErrTruncated
	}
	b := r.data[r.pos:end]
	r.pos = end
	return b, nil
}
