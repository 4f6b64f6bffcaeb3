// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"fmt"
)

// Attribute is a decoded class, field or method attribute. Attributes this
// decoder does not understand are preserved as UnknownAttr so downstream
// tooling retains full fidelity.
type Attribute interface {
	// AttrName returns the attribute name as it appears in the class file.
	AttrName() string
}

// UnknownAttr preserves an attribute this decoder has no structured form
// for: the name plus the undecoded body bytes.
type UnknownAttr struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

func (a UnknownAttr) AttrName() string { return a.Name }

// DeprecatedAttr marks the enclosing element as deprecated. The attribute
// carries no body.
type DeprecatedAttr struct{}

func (DeprecatedAttr) AttrName() string { return AttrDeprecated }

// AnnotationsAttr is a RuntimeVisibleAnnotations or
// RuntimeInvisibleAnnotations attribute.
type AnnotationsAttr struct {
	Visible     bool         `json:"visible"`
	Annotations []Annotation `json:"annotations"`
}

func (a AnnotationsAttr) AttrName() string {
	if a.Visible {
		return AttrVisibleAnnotations
	}
	return AttrInvisibleAnnotations
}

// Annotation is one annotation instance: its type and the explicit element
// value pairs.
type Annotation struct {
	Type     Signature           `json:"type"`
	Elements []AnnotationElement `json:"elements,omitempty"`
}

// AnnotationElement is one named element value of an annotation.
type AnnotationElement struct {
	Name  string       `json:"name"`
	Value ElementValue `json:"value"`
}

// ElementValue is an annotation element value. The concrete types are
// ElementConst, ElementEnum, ElementClass, ElementAnnotation and
// ElementArray.
type ElementValue interface {
	isElementValue()
}

// ElementConst is a primitive or string constant value. Tag preserves the
// original ASCII discriminator byte so round-trips are exact.
type ElementConst struct {
	Tag   byte  `json:"tag"`
	Value Const `json:"value"`
}

func (ElementConst) isElementValue() {}

// ElementEnum is an enum constant value: the enum type and the constant
// name.
type ElementEnum struct {
	Type Signature `json:"type"`
	Name string    `json:"name"`
}

func (ElementEnum) isElementValue() {}

// ElementClass is a class literal value.
type ElementClass struct {
	Type Signature `json:"type"`
}

func (ElementClass) isElementValue() {}

// ElementAnnotation is a nested annotation value.
type ElementAnnotation struct {
	Annotation Annotation `json:"annotation"`
}

func (ElementAnnotation) isElementValue() {}

// ElementArray is an array of element values.
type ElementArray struct {
	Values []ElementValue `json:"values"`
}

func (ElementArray) isElementValue() {}

// attrOverride lets a member or class parser intercept context-sensitive
// attributes. The hook either consumes exactly length bytes itself and
// returns handled true (with a nil attribute when the record should be
// dropped from the attribute list), or leaves handled false to delegate to
// the generic handlers.
type attrOverride func(name string, length uint32, r *reader) (attr Attribute, handled bool, err error)

// parseAttributes reads a u16 count of (name, length, body) records and
// dispatches each by name. Every handler, hook or generic, is bracketed
// against the declared length: consuming the wrong number of bytes fails
// the decode rather than desynchronising the stream.
func (f *File) parseAttributes(r *reader, hook attrOverride) ([]Attribute, error) {
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}

	var attrs []Attribute
	for i := uint16(0); i < count; i++ {
		nameIndex, err := r.readU16()
		if err != nil {
			return nil, err
		}
		name, err := f.stringAt(nameIndex)
		if err != nil {
			return nil, err
		}
		length, err := r.readU32()
		if err != nil {
			return nil, err
		}

		start := r.offset()
		var attr Attribute
		var handled bool
		if hook != nil {
			attr, handled, err = hook(name, length, r)
			if err != nil {
				return nil, err
			}
		}
		if !handled {
			attr, err = f.parseKnownAttr(name, length, r)
			if err != nil {
				return nil, err
			}
		}
		if r.offset()-start != int(length) {
			return nil, fmt.Errorf("%w: %s consumed %d of %d bytes",
				ErrMalformedAttribute, name, r.offset()-start, length)
		}
		if attr != nil {
			attrs = append(attrs, attr)
		}
	}
	return attrs, nil
}

// parseKnownAttr handles the context-free attributes; anything unrecognised
// is preserved opaquely.
func (f *File) parseKnownAttr(name string, length uint32, r *reader) (Attribute, error) {
	switch name {

	case AttrDeprecated:
		if length != 0 {
			return nil, fmt.Errorf("%w: %s has length %d", ErrMalformedAttribute, name, length)
		}
		return DeprecatedAttr{}, nil

	case AttrVisibleAnnotations, AttrInvisibleAnnotations:
		annotations, err := f.parseAnnotations(r)
		if err != nil {
			return nil, err
		}
		return AnnotationsAttr{
			Visible:     name == AttrVisibleAnnotations,
			Annotations: annotations,
		}, nil
	}

	f.logger.Debugf("preserving unknown attribute %q (%d bytes)", name, length)
	data, err := r.readBytes(length)
	if err != nil {
		return nil, err
	}
	return UnknownAttr{Name: name, Data: data}, nil
}

func (f *File) parseAnnotations(r *reader) ([]Annotation, error) {
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	annotations := make([]Annotation, 0, count)
	for i := uint16(0); i < count; i++ {
		a, err := f.parseAnnotation(r)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, nil
}

func (f *File) parseAnnotation(r *reader) (Annotation, error) {
	typeIndex, err := r.readU16()
	if err != nil {
		return Annotation{}, err
	}
	desc, err := f.stringAt(typeIndex)
	if err != nil {
		return Annotation{}, err
	}
	sig, err := f.parseSignature(desc)
	if err != nil {
		return Annotation{}, err
	}

	count, err := r.readU16()
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{Type: sig}
	for i := uint16(0); i < count; i++ {
		nameIndex, err := r.readU16()
		if err != nil {
			return Annotation{}, err
		}
		name, err := f.stringAt(nameIndex)
		if err != nil {
			return Annotation{}, err
		}
		value, err := f.parseElementValue(r)
		if err != nil {
			return Annotation{}, err
		}
		a.Elements = append(a.Elements, AnnotationElement{Name: name, Value: value})
	}
	return a, nil
}

func (f *File) parseElementValue(r *reader) (ElementValue, error) {
	tag, err := r.readU8()
	if err != nil {
		return nil, err
	}

	switch tag {

	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		index, err := r.readU16()
		if err != nil {
			return nil, err
		}
		c, err := f.constAt(index)
		if err != nil {
			return nil, err
		}
		return ElementConst{Tag: tag, Value: c}, nil

	case 'e':
		typeIndex, err := r.readU16()
		if err != nil {
			return nil, err
		}
		desc, err := f.stringAt(typeIndex)
		if err != nil {
			return nil, err
		}
		sig, err := f.parseSignature(desc)
		if err != nil {
			return nil, err
		}
		nameIndex, err := r.readU16()
		if err != nil {
			return nil, err
		}
		name, err := f.stringAt(nameIndex)
		if err != nil {
			return nil, err
		}
		return ElementEnum{Type: sig, Name: name}, nil

	case 'c':
		index, err := r.readU16()
		if err != nil {
			return nil, err
		}
		desc, err := f.stringAt(index)
		if err != nil {
			return nil, err
		}
		sig, err := f.parseSignature(desc)
		if err != nil {
			return nil, err
		}
		return ElementClass{Type: sig}, nil

	case '@':
		a, err := f.parseAnnotation(r)
		if err != nil {
			return nil, err
		}
		return ElementAnnotation{Annotation: a}, nil

	case '[':
		count, err := r.readU16()
		if err != nil {
			return nil, err
		}
		values := make([]ElementValue, 0, count)
		for i := uint16(0); i < count; i++ {
			v, err := f.parseElementValue(r)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return ElementArray{Values: values}, nil
	}

	return nil, fmt.Errorf("%w: element value tag %q", ErrMalformedAttribute, tag)
}
