// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"encoding/binary"
	"errors"

	"golang.org/x/text/encoding/unicode"
)

// Errors
var (

	// ErrBadMagic is returned when the image does not begin with 0xCAFEBABE.
	ErrBadMagic = errors.New("not a class file, magic not found")

	// ErrTruncated is returned when the image ends before a read completes.
	ErrTruncated = errors.New("truncated class file")

	// ErrBadConstantTag is returned on a constant pool tag this decoder
	// does not know. Unknown tags are fatal: the entry size is unknowable,
	// so the rest of the pool cannot be located.
	ErrBadConstantTag = errors.New("bad constant pool tag")

	// ErrInvalidConstantIndex is returned when an index points at slot 0,
	// past the declared pool size, or at an unusable slot.
	ErrInvalidConstantIndex = errors.New("invalid constant pool index")

	// ErrUnexpectedConstantKind is returned when an index chase lands on an
	// entry of the wrong kind.
	ErrUnexpectedConstantKind = errors.New("unexpected constant pool entry kind")

	// ErrBadReferenceKind is returned on a method handle kind outside 1..9.
	ErrBadReferenceKind = errors.New("bad method handle reference kind")

	// ErrInvalidSignature is returned when a descriptor or signature string
	// does not match the grammar or is not consumed in full.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInnerWithPackage is returned when an inner-class chain segment
	// declares package qualifiers.
	ErrInnerWithPackage = errors.New("inner class segment declares a package")

	// ErrMalformedAttribute is returned when a known attribute's body does
	// not have the shape its name promises, or when a handler consumes a
	// number of bytes different from the declared length.
	ErrMalformedAttribute = errors.New("malformed attribute")

	// ErrUnusableFlagBit is returned when an access flag bit that is not
	// legal for the enclosing element is set.
	ErrUnusableFlagBit = errors.New("unusable access flag bit set")

	// ErrSignatureTooDeep is returned when generics, arrays or inner
	// classes nest beyond the configured depth.
	ErrSignatureTooDeep = errors.New("signature nesting too deep")

	// ErrMalformedUTF8 is returned when a modified UTF-8 payload cannot be
	// decoded.
	ErrMalformedUTF8 = errors.New("malformed modified UTF-8")
)

// DecodeModifiedUTF8 decodes the modified UTF-8 dialect used inside class
// files: NUL is the two-byte form 0xC0 0x80, there are no four-byte groups,
// and supplementary characters arrive as CESU-8 surrogate pairs. The groups
// decode to UTF-16 code units, which is exactly the shape a UTF-16 decoder
// expects.
func DecodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			if c == 0 {
				return "", ErrMalformedUTF8
			}
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", ErrMalformedUTF8
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", ErrMalformedUTF8
			}
			units = append(units,
				uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", ErrMalformedUTF8
		}
	}

	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[2*i:], u)
	}
	decoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	decoded, err := decoder.Bytes(buf)
	if err != nil {
		return "", ErrMalformedUTF8
	}
	return string(decoded), nil
}
