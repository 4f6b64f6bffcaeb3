// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"fmt"
)

// RawConst is a constant pool entry before index resolution. Which fields
// are meaningful depends on Kind; see the parse switch in
// parseRawConstantPool. Slot 0 and the slot after a long or double keep the
// zero value, whose Kind is ConstantUnusable.
type RawConst struct {
	Kind ConstantKind `json:"kind"`

	// Bytes is the payload of a Utf8 entry, in modified UTF-8.
	Bytes []byte `json:"bytes,omitempty"`

	Int    int32   `json:"int,omitempty"`
	Float  float32 `json:"float,omitempty"`
	Long   int64   `json:"long,omitempty"`
	Double float64 `json:"double,omitempty"`

	// RefKind is the behaviour of a MethodHandle entry.
	RefKind ReferenceKind `json:"ref_kind,omitempty"`

	// Index is the single pool index of Class, String and MethodType
	// entries, the class index of ref entries, the name index of a
	// NameAndType, the reference index of a MethodHandle, and the bootstrap
	// method index of an InvokeDynamic.
	Index uint16 `json:"index,omitempty"`

	// Index2 is the name-and-type index of ref and InvokeDynamic entries
	// and the descriptor index of a NameAndType.
	Index2 uint16 `json:"index2,omitempty"`
}

// Const is a fully resolved constant pool entry. All index chasing happened
// during expansion; the concrete types are self-contained.
type Const interface {
	// ConstKind returns the pool tag this entry was decoded from.
	ConstKind() ConstantKind
}

// ConstUnusable fills slot 0 and the slot after a long or double.
type ConstUnusable struct{}

func (ConstUnusable) ConstKind() ConstantKind { return ConstantUnusable }

// ConstUtf8 is a raw modified UTF-8 byte string, preserved as-is.
type ConstUtf8 struct {
	Bytes []byte `json:"bytes"`
}

func (ConstUtf8) ConstKind() ConstantKind { return ConstantUtf8 }

// ConstInt is a 32-bit integer literal.
type ConstInt struct {
	Value int32 `json:"value"`
}

func (ConstInt) ConstKind() ConstantKind { return ConstantInteger }

// ConstFloat is a single precision float literal.
type ConstFloat struct {
	Value float32 `json:"value"`
}

func (ConstFloat) ConstKind() ConstantKind { return ConstantFloat }

// ConstLong is a 64-bit integer literal.
type ConstLong struct {
	Value int64 `json:"value"`
}

func (ConstLong) ConstKind() ConstantKind { return ConstantLong }

// ConstDouble is a double precision float literal.
type ConstDouble struct {
	Value float64 `json:"value"`
}

func (ConstDouble) ConstKind() ConstantKind { return ConstantDouble }

// ConstClass is a resolved class reference.
type ConstClass struct {
	Path Path `json:"path"`
}

func (ConstClass) ConstKind() ConstantKind { return ConstantClass }

// ConstString is a resolved string literal.
type ConstString struct {
	Value string `json:"value"`
}

func (ConstString) ConstKind() ConstantKind { return ConstantString }

// ConstField is a resolved field reference.
type ConstField struct {
	Class Path      `json:"class"`
	Name  string    `json:"name"`
	Type  Signature `json:"type"`
}

func (ConstField) ConstKind() ConstantKind { return ConstantFieldRef }

// ConstMethod is a resolved class method reference.
type ConstMethod struct {
	Class Path      `json:"class"`
	Name  string    `json:"name"`
	Type  MethodSig `json:"type"`
}

func (ConstMethod) ConstKind() ConstantKind { return ConstantMethodRef }

// ConstInterfaceMethod is a resolved interface method reference.
type ConstInterfaceMethod struct {
	Class Path      `json:"class"`
	Name  string    `json:"name"`
	Type  MethodSig `json:"type"`
}

func (ConstInterfaceMethod) ConstKind() ConstantKind { return ConstantInterfaceMethodRef }

// ConstNameAndType is a resolved name and descriptor pair.
type ConstNameAndType struct {
	Name string    `json:"name"`
	Type Signature `json:"type"`
}

func (ConstNameAndType) ConstKind() ConstantKind { return ConstantNameAndType }

// ConstMethodHandle is a resolved method handle: the reference kind plus the
// referenced entry, itself already expanded.
type ConstMethodHandle struct {
	RefKind ReferenceKind `json:"ref_kind"`
	Ref     Const         `json:"ref"`
}

func (ConstMethodHandle) ConstKind() ConstantKind { return ConstantMethodHandle }

// ConstMethodType is a resolved method type.
type ConstMethodType struct {
	Type MethodSig `json:"type"`
}

func (ConstMethodType) ConstKind() ConstantKind { return ConstantMethodType }

// ConstInvokeDynamic is a resolved invokedynamic call site. BootstrapIndex
// indexes the BootstrapMethods attribute, not the constant pool.
type ConstInvokeDynamic struct {
	BootstrapIndex uint16    `json:"bootstrap_index"`
	Name           string    `json:"name"`
	Type           Signature `json:"type"`
}

func (ConstInvokeDynamic) ConstKind() ConstantKind { return ConstantInvokeDynamic }

// checkPoolIndex validates a pool reference read from an entry body against
// the declared pool size. Slot 0 is never a legal target.
func checkPoolIndex(index, count uint16) error {
	if index == 0 || index >= count {
		return fmt.Errorf("%w: %d", ErrInvalidConstantIndex, index)
	}
	return nil
}

// parseRawConstantPool reads the declared entry count and the tag-switched
// entries that follow. Longs and doubles occupy two slots; the second slot
// stays unusable and consumes no bytes.
func (f *File) parseRawConstantPool(r *reader) ([]RawConst, error) {
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: declared pool size 0", ErrInvalidConstantIndex)
	}

	raw := make([]RawConst, count)
	for i := uint16(1); i < count; i++ {
		tag, err := r.readU8()
		if err != nil {
			return nil, err
		}

		entry := &raw[i]
		entry.Kind = ConstantKind(tag)
		switch entry.Kind {

		case ConstantUtf8:
			n, err := r.readU16()
			if err != nil {
				return nil, err
			}
			entry.Bytes, err = r.readBytes(uint32(n))
			if err != nil {
				return nil, err
			}

		case ConstantInteger:
			entry.Int, err = r.readI32()
			if err != nil {
				return nil, err
			}

		case ConstantFloat:
			entry.Float, err = r.readF32()
			if err != nil {
				return nil, err
			}

		case ConstantLong:
			entry.Long, err = r.readI64()
			if err != nil {
				return nil, err
			}
			i++

		case ConstantDouble:
			entry.Double, err = r.readF64()
			if err != nil {
				return nil, err
			}
			i++

		case ConstantClass, ConstantString, ConstantMethodType:
			entry.Index, err = r.readU16()
			if err != nil {
				return nil, err
			}
			if err := checkPoolIndex(entry.Index, count); err != nil {
				return nil, err
			}

		case ConstantFieldRef, ConstantMethodRef, ConstantInterfaceMethodRef,
			ConstantNameAndType:
			entry.Index, err = r.readU16()
			if err != nil {
				return nil, err
			}
			entry.Index2, err = r.readU16()
			if err != nil {
				return nil, err
			}
			if err := checkPoolIndex(entry.Index, count); err != nil {
				return nil, err
			}
			if err := checkPoolIndex(entry.Index2, count); err != nil {
				return nil, err
			}

		case ConstantMethodHandle:
			kind, err := r.readU8()
			if err != nil {
				return nil, err
			}
			if kind < uint8(RefGetField) || kind > uint8(RefInvokeInterface) {
				return nil, fmt.Errorf("%w: %d", ErrBadReferenceKind, kind)
			}
			entry.RefKind = ReferenceKind(kind)
			entry.Index, err = r.readU16()
			if err != nil {
				return nil, err
			}
			if err := checkPoolIndex(entry.Index, count); err != nil {
				return nil, err
			}

		case ConstantInvokeDynamic:
			// The first index selects a bootstrap method, not a pool slot,
			// so only the name-and-type index is validated here.
			entry.Index, err = r.readU16()
			if err != nil {
				return nil, err
			}
			entry.Index2, err = r.readU16()
			if err != nil {
				return nil, err
			}
			if err := checkPoolIndex(entry.Index2, count); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("%w: %d at pool index %d", ErrBadConstantTag, tag, i)
		}
	}
	return raw, nil
}

// expandConstantPool walks the raw pool once and resolves every entry into
// its self-contained form. Method handles recurse exactly one level, into an
// entry that is itself required to be a ref kind, so no cycle can form.
func (f *File) expandConstantPool(raw []RawConst) ([]Const, error) {
	resolved := make([]Const, len(raw))
	for i := range raw {
		c, err := f.expandConst(raw, uint16(i))
		if err != nil {
			return nil, err
		}
		resolved[i] = c
	}
	return resolved, nil
}

func (f *File) expandConst(raw []RawConst, i uint16) (Const, error) {
	entry := raw[i]
	switch entry.Kind {

	case ConstantUnusable:
		return ConstUnusable{}, nil

	case ConstantUtf8:
		return ConstUtf8{Bytes: entry.Bytes}, nil

	case ConstantInteger:
		return ConstInt{Value: entry.Int}, nil

	case ConstantFloat:
		return ConstFloat{Value: entry.Float}, nil

	case ConstantLong:
		return ConstLong{Value: entry.Long}, nil

	case ConstantDouble:
		return ConstDouble{Value: entry.Double}, nil

	case ConstantClass:
		path, err := rawClassPath(raw, i)
		if err != nil {
			return nil, err
		}
		return ConstClass{Path: path}, nil

	case ConstantString:
		s, err := rawString(raw, entry.Index)
		if err != nil {
			return nil, err
		}
		return ConstString{Value: s}, nil

	case ConstantFieldRef:
		class, name, desc, err := rawRef(raw, entry)
		if err != nil {
			return nil, err
		}
		sig, err := f.parseSignature(desc)
		if err != nil {
			return nil, err
		}
		return ConstField{Class: class, Name: name, Type: sig}, nil

	case ConstantMethodRef:
		class, name, sig, err := f.rawMethodRef(raw, entry)
		if err != nil {
			return nil, err
		}
		return ConstMethod{Class: class, Name: name, Type: sig}, nil

	case ConstantInterfaceMethodRef:
		class, name, sig, err := f.rawMethodRef(raw, entry)
		if err != nil {
			return nil, err
		}
		return ConstInterfaceMethod{Class: class, Name: name, Type: sig}, nil

	case ConstantNameAndType:
		name, desc, err := rawNameAndType(raw, i)
		if err != nil {
			return nil, err
		}
		sig, err := f.parseSignature(desc)
		if err != nil {
			return nil, err
		}
		return ConstNameAndType{Name: name, Type: sig}, nil

	case ConstantMethodHandle:
		switch raw[entry.Index].Kind {
		case ConstantFieldRef, ConstantMethodRef, ConstantInterfaceMethodRef:
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedConstantKind, entry.Index)
		}
		ref, err := f.expandConst(raw, entry.Index)
		if err != nil {
			return nil, err
		}
		return ConstMethodHandle{RefKind: entry.RefKind, Ref: ref}, nil

	case ConstantMethodType:
		desc, err := rawString(raw, entry.Index)
		if err != nil {
			return nil, err
		}
		sig, err := f.parseMethodSignature(desc)
		if err != nil {
			return nil, err
		}
		return ConstMethodType{Type: sig}, nil

	case ConstantInvokeDynamic:
		name, desc, err := rawNameAndType(raw, entry.Index2)
		if err != nil {
			return nil, err
		}
		sig, err := f.parseSignature(desc)
		if err != nil {
			return nil, err
		}
		return ConstInvokeDynamic{BootstrapIndex: entry.Index, Name: name, Type: sig}, nil
	}

	return nil, fmt.Errorf("%w: %d at pool index %d", ErrBadConstantTag, entry.Kind, i)
}

// rawUtf8 fetches the payload of the Utf8 entry at index i.
func rawUtf8(raw []RawConst, i uint16) ([]byte, error) {
	if int(i) >= len(raw) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConstantIndex, i)
	}
	if raw[i].Kind != ConstantUtf8 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedConstantKind, i)
	}
	return raw[i].Bytes, nil
}

// rawString fetches and decodes the Utf8 entry at index i.
func rawString(raw []RawConst, i uint16) (string, error) {
	b, err := rawUtf8(raw, i)
	if err != nil {
		return "", err
	}
	return DecodeModifiedUTF8(b)
}

// rawClassPath resolves the Class entry at index i into a Path.
func rawClassPath(raw []RawConst, i uint16) (Path, error) {
	if int(i) >= len(raw) {
		return Path{}, fmt.Errorf("%w: %d", ErrInvalidConstantIndex, i)
	}
	if raw[i].Kind != ConstantClass {
		return Path{}, fmt.Errorf("%w: %d", ErrUnexpectedConstantKind, i)
	}
	name, err := rawString(raw, raw[i].Index)
	if err != nil {
		return Path{}, err
	}
	return pathFromInternal(name), nil
}

// rawNameAndType resolves the NameAndType entry at index i into its name
// and descriptor strings.
func rawNameAndType(raw []RawConst, i uint16) (string, string, error) {
	if int(i) >= len(raw) {
		return "", "", fmt.Errorf("%w: %d", ErrInvalidConstantIndex, i)
	}
	if raw[i].Kind != ConstantNameAndType {
		return "", "", fmt.Errorf("%w: %d", ErrUnexpectedConstantKind, i)
	}
	name, err := rawString(raw, raw[i].Index)
	if err != nil {
		return "", "", err
	}
	desc, err := rawString(raw, raw[i].Index2)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// rawRef resolves the class path, member name and descriptor string of a
// field or method ref entry.
func rawRef(raw []RawConst, entry RawConst) (Path, string, string, error) {
	class, err := rawClassPath(raw, entry.Index)
	if err != nil {
		return Path{}, "", "", err
	}
	name, desc, err := rawNameAndType(raw, entry.Index2)
	if err != nil {
		return Path{}, "", "", err
	}
	return class, name, desc, nil
}

// rawMethodRef resolves a method or interface method ref; the descriptor is
// required to parse as a method signature.
func (f *File) rawMethodRef(raw []RawConst, entry RawConst) (Path, string, MethodSig, error) {
	class, name, desc, err := rawRef(raw, entry)
	if err != nil {
		return Path{}, "", MethodSig{}, err
	}
	sig, err := f.parseMethodSignature(desc)
	if err != nil {
		return Path{}, "", MethodSig{}, err
	}
	return class, name, sig, nil
}
