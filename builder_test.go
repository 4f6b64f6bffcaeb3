// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"bytes"
	"encoding/binary"
	"math"
)

// classBuilder assembles big-endian class file images for tests.
type classBuilder struct {
	buf bytes.Buffer
}

func (b *classBuilder) u8(v uint8) *classBuilder {
	b.buf.WriteByte(v)
	return b
}

func (b *classBuilder) u16(v uint16) *classBuilder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *classBuilder) u32(v uint32) *classBuilder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *classBuilder) u64(v uint64) *classBuilder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *classBuilder) raw(p []byte) *classBuilder {
	b.buf.Write(p)
	return b
}

func (b *classBuilder) str(s string) *classBuilder {
	b.buf.WriteString(s)
	return b
}

func (b *classBuilder) bytes() []byte {
	return b.buf.Bytes()
}

// cpBuilder assembles a constant pool, handing out 1-based indices as
// entries are added. Longs and doubles take their historical two slots.
type cpBuilder struct {
	b     classBuilder
	slots uint16
}

func newCP() *cpBuilder {
	return &cpBuilder{slots: 1}
}

func (c *cpBuilder) take() uint16 {
	i := c.slots
	c.slots++
	return i
}

func (c *cpBuilder) utf8(s string) uint16 {
	c.b.u8(uint8(ConstantUtf8)).u16(uint16(len(s))).str(s)
	return c.take()
}

func (c *cpBuilder) integer(v int32) uint16 {
	c.b.u8(uint8(ConstantInteger)).u32(uint32(v))
	return c.take()
}

func (c *cpBuilder) float(v float32) uint16 {
	c.b.u8(uint8(ConstantFloat)).u32(math.Float32bits(v))
	return c.take()
}

func (c *cpBuilder) long(v int64) uint16 {
	c.b.u8(uint8(ConstantLong)).u64(uint64(v))
	i := c.take()
	c.slots++ // phantom slot
	return i
}

func (c *cpBuilder) double(v float64) uint16 {
	c.b.u8(uint8(ConstantDouble)).u64(math.Float64bits(v))
	i := c.take()
	c.slots++ // phantom slot
	return i
}

func (c *cpBuilder) class(nameIndex uint16) uint16 {
	c.b.u8(uint8(ConstantClass)).u16(nameIndex)
	return c.take()
}

func (c *cpBuilder) classNamed(internal string) uint16 {
	return c.class(c.utf8(internal))
}

func (c *cpBuilder) stringRef(utf8Index uint16) uint16 {
	c.b.u8(uint8(ConstantString)).u16(utf8Index)
	return c.take()
}

func (c *cpBuilder) nameAndType(nameIndex, descIndex uint16) uint16 {
	c.b.u8(uint8(ConstantNameAndType)).u16(nameIndex).u16(descIndex)
	return c.take()
}

func (c *cpBuilder) ref(kind ConstantKind, classIndex, natIndex uint16) uint16 {
	c.b.u8(uint8(kind)).u16(classIndex).u16(natIndex)
	return c.take()
}

func (c *cpBuilder) methodHandle(kind ReferenceKind, refIndex uint16) uint16 {
	c.b.u8(uint8(ConstantMethodHandle)).u8(uint8(kind)).u16(refIndex)
	return c.take()
}

func (c *cpBuilder) methodType(descIndex uint16) uint16 {
	c.b.u8(uint8(ConstantMethodType)).u16(descIndex)
	return c.take()
}

func (c *cpBuilder) invokeDynamic(bootstrapIndex, natIndex uint16) uint16 {
	c.b.u8(uint8(ConstantInvokeDynamic)).u16(bootstrapIndex).u16(natIndex)
	return c.take()
}

// emit writes the declared count followed by the entry bytes.
func (c *cpBuilder) emit(b *classBuilder) {
	b.u16(c.slots)
	b.raw(c.b.bytes())
}

// poolBytes is a standalone image of just the pool, for the phase-1 and
// phase-2 tests.
func (c *cpBuilder) poolBytes() []byte {
	var b classBuilder
	c.emit(&b)
	return b.bytes()
}
