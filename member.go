// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"fmt"
)

// MemberKind tells fields and methods apart.
type MemberKind uint8

const (
	MemberField MemberKind = iota
	MemberMethod
)

// String stringifies the member kind.
func (k MemberKind) String() string {
	if k == MemberField {
		return "field"
	}
	return "method"
}

// Member is a decoded field or method.
type Member struct {
	Name string     `json:"name"`
	Kind MemberKind `json:"kind"`

	// VMSignature is the type decoded from the descriptor string.
	VMSignature Signature `json:"vm_signature"`

	// Signature starts out identical to VMSignature and is refined in
	// place when a Signature attribute is present.
	Signature Signature `json:"signature"`

	Throws     []Signature       `json:"throws,omitempty"`
	TypeParams []FormalTypeParam `json:"type_params,omitempty"`
	Flags      AccessFlags       `json:"flags"`
	Attributes []Attribute       `json:"attributes,omitempty"`

	// Constant is the ConstantValue of a field, when one is attached.
	Constant Const `json:"constant,omitempty"`

	// Code preserves the raw Code attribute of a method. The body is kept
	// opaque; this decoder does not interpret bytecode.
	Code *UnknownAttr `json:"code,omitempty"`
}

// parseMember decodes one field_info or method_info record.
func (f *File) parseMember(r *reader, kind MemberKind) (Member, error) {
	table := fieldFlagTable
	if kind == MemberMethod {
		table = methodFlagTable
	}

	rawFlags, err := r.readU16()
	if err != nil {
		return Member{}, err
	}
	flags, err := parseAccessFlags(rawFlags, table)
	if err != nil {
		return Member{}, err
	}

	nameIndex, err := r.readU16()
	if err != nil {
		return Member{}, err
	}
	name, err := f.stringAt(nameIndex)
	if err != nil {
		return Member{}, err
	}

	descIndex, err := r.readU16()
	if err != nil {
		return Member{}, err
	}
	desc, err := f.stringAt(descIndex)
	if err != nil {
		return Member{}, err
	}
	vmSig, err := f.parseSignature(desc)
	if err != nil {
		return Member{}, err
	}

	m := Member{
		Name:        name,
		Kind:        kind,
		VMSignature: vmSig,
		Signature:   vmSig,
		Flags:       flags,
	}

	var hook attrOverride
	if kind == MemberField {
		hook = f.fieldAttrHook(&m)
	} else {
		hook = f.methodAttrHook(&m)
	}
	m.Attributes, err = f.parseAttributes(r, hook)
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

// fieldAttrHook intercepts the attributes that fold into the field record
// itself. Intercepted records are dropped from the attribute list.
func (f *File) fieldAttrHook(m *Member) attrOverride {
	return func(name string, length uint32, r *reader) (Attribute, bool, error) {
		switch name {

		case AttrConstantValue:
			index, err := r.readU16()
			if err != nil {
				return nil, false, err
			}
			c, err := f.constAt(index)
			if err != nil {
				return nil, false, err
			}
			if !constantMatchesType(m.VMSignature, c) {
				return nil, false, fmt.Errorf("%w: %s of kind %s does not match field type",
					ErrMalformedAttribute, name, c.ConstKind())
			}
			m.Constant = c
			return nil, true, nil

		case AttrSynthetic:
			m.Flags = m.Flags.with(FlagSynthetic)
			return nil, true, nil

		case AttrSignature:
			sig, err := f.parseSignatureAttr(r)
			if err != nil {
				return nil, false, err
			}
			if _, isMethod := sig.(MethodSig); isMethod {
				return nil, false, fmt.Errorf("%w: %s turns a field into a method",
					ErrMalformedAttribute, name)
			}
			m.Signature = sig
			return nil, true, nil
		}

		return nil, false, nil
	}
}

// methodAttrHook intercepts Code, Exceptions and Signature. Code stays in
// the attribute list as well as on the member; the other two are dropped
// once folded in.
func (f *File) methodAttrHook(m *Member) attrOverride {
	return func(name string, length uint32, r *reader) (Attribute, bool, error) {
		switch name {

		case AttrCode:
			data, err := r.readBytes(length)
			if err != nil {
				return nil, false, err
			}
			code := UnknownAttr{Name: AttrCode, Data: data}
			m.Code = &code
			return code, true, nil

		case AttrExceptions:
			count, err := r.readU16()
			if err != nil {
				return nil, false, err
			}
			throws := make([]Signature, 0, count)
			for i := uint16(0); i < count; i++ {
				index, err := r.readU16()
				if err != nil {
					return nil, false, err
				}
				path, err := f.classAt(index)
				if err != nil {
					return nil, false, err
				}
				throws = append(throws, ObjectType{Path: path})
			}
			m.Throws = throws
			return nil, true, nil

		case AttrSignature:
			index, err := r.readU16()
			if err != nil {
				return nil, false, err
			}
			s, err := f.stringAt(index)
			if err != nil {
				return nil, false, err
			}
			sig, err := parseGenericMethodSignatureDepth(s, f.maxSignatureDepth())
			if err != nil {
				return nil, false, err
			}
			m.Signature = sig.Sig
			m.TypeParams = sig.TypeParams
			if len(sig.Throws) > 0 {
				m.Throws = sig.Throws
			}
			return nil, true, nil
		}

		return nil, false, nil
	}
}

// parseSignatureAttr reads the single UTF-8 index of a Signature attribute
// body and parses the referenced string.
func (f *File) parseSignatureAttr(r *reader) (Signature, error) {
	index, err := r.readU16()
	if err != nil {
		return nil, err
	}
	s, err := f.stringAt(index)
	if err != nil {
		return nil, err
	}
	return f.parseSignature(s)
}

// constantMatchesType reports whether a ConstantValue entry is of the kind
// the field descriptor calls for.
func constantMatchesType(sig Signature, c Const) bool {
	switch t := sig.(type) {
	case BaseType:
		switch t {
		case TypeInt, TypeShort, TypeChar, TypeByte, TypeBool:
			_, ok := c.(ConstInt)
			return ok
		case TypeLong:
			_, ok := c.(ConstLong)
			return ok
		case TypeFloat:
			_, ok := c.(ConstFloat)
			return ok
		case TypeDouble:
			_, ok := c.(ConstDouble)
			return ok
		}
	case ObjectType:
		if t.Path.Name == "String" && len(t.Path.Package) == 2 &&
			t.Path.Package[0] == "java" && t.Path.Package[1] == "lang" {
			_, ok := c.(ConstString)
			return ok
		}
	}
	return false
}
