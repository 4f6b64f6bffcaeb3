// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import "strconv"

// ClassMagic is the magic number found at the start of every valid Java
// class file.
const ClassMagic = 0xCAFEBABE

// ConstantKind enumerates the tag values of constant pool entries as defined
// in the JVM specification, chapter 4.4. The zero value marks a slot that
// holds no entry: index 0 and the slot following a long or a double.
type ConstantKind uint8

const (
	// ConstantUnusable marks a pool slot that carries no entry.
	ConstantUnusable ConstantKind = 0

	// ConstantUtf8 holds a length-prefixed modified UTF-8 byte string.
	ConstantUtf8 ConstantKind = 1

	// ConstantInteger holds a 32-bit signed integer.
	ConstantInteger ConstantKind = 3

	// ConstantFloat holds an IEEE-754 single precision float.
	ConstantFloat ConstantKind = 4

	// ConstantLong holds a 64-bit signed integer. Occupies two pool slots.
	ConstantLong ConstantKind = 5

	// ConstantDouble holds an IEEE-754 double precision float. Occupies two
	// pool slots.
	ConstantDouble ConstantKind = 6

	// ConstantClass references a class or interface by the index of its
	// internal name.
	ConstantClass ConstantKind = 7

	// ConstantString references a string literal by the index of its
	// UTF-8 payload.
	ConstantString ConstantKind = 8

	// ConstantFieldRef references a field through a class index and a
	// name-and-type index.
	ConstantFieldRef ConstantKind = 9

	// ConstantMethodRef references a class method through a class index and
	// a name-and-type index.
	ConstantMethodRef ConstantKind = 10

	// ConstantInterfaceMethodRef references an interface method through a
	// class index and a name-and-type index.
	ConstantInterfaceMethodRef ConstantKind = 11

	// ConstantNameAndType pairs a member name index with a descriptor index.
	ConstantNameAndType ConstantKind = 12

	// ConstantMethodHandle encodes a reference kind and the index of the
	// field or method ref it designates.
	ConstantMethodHandle ConstantKind = 15

	// ConstantMethodType references a method descriptor by UTF-8 index.
	ConstantMethodType ConstantKind = 16

	// ConstantInvokeDynamic pairs a bootstrap method index with a
	// name-and-type index.
	ConstantInvokeDynamic ConstantKind = 18
)

// String stringifies the constant pool tag.
func (k ConstantKind) String() string {
	kindMap := map[ConstantKind]string{
		ConstantUnusable:           "Unusable",
		ConstantUtf8:               "Utf8",
		ConstantInteger:            "Integer",
		ConstantFloat:              "Float",
		ConstantLong:               "Long",
		ConstantDouble:             "Double",
		ConstantClass:              "Class",
		ConstantString:             "String",
		ConstantFieldRef:           "FieldRef",
		ConstantMethodRef:          "MethodRef",
		ConstantInterfaceMethodRef: "InterfaceMethodRef",
		ConstantNameAndType:        "NameAndType",
		ConstantMethodHandle:       "MethodHandle",
		ConstantMethodType:         "MethodType",
		ConstantInvokeDynamic:      "InvokeDynamic",
	}

	if name, ok := kindMap[k]; ok {
		return name
	}
	return "?"
}

// ReferenceKind is the behaviour discriminator of a method handle constant,
// JVM specification table 5.4.3.5-A.
type ReferenceKind uint8

const (
	RefGetField         ReferenceKind = 1
	RefGetStatic        ReferenceKind = 2
	RefPutField         ReferenceKind = 3
	RefPutStatic        ReferenceKind = 4
	RefInvokeVirtual    ReferenceKind = 5
	RefInvokeStatic     ReferenceKind = 6
	RefInvokeSpecial    ReferenceKind = 7
	RefNewInvokeSpecial ReferenceKind = 8
	RefInvokeInterface  ReferenceKind = 9
)

// String stringifies the method handle reference kind.
func (k ReferenceKind) String() string {
	refKindMap := map[ReferenceKind]string{
		RefGetField:         "GetField",
		RefGetStatic:        "GetStatic",
		RefPutField:         "PutField",
		RefPutStatic:        "PutStatic",
		RefInvokeVirtual:    "InvokeVirtual",
		RefInvokeStatic:     "InvokeStatic",
		RefInvokeSpecial:    "InvokeSpecial",
		RefNewInvokeSpecial: "NewInvokeSpecial",
		RefInvokeInterface:  "InvokeInterface",
	}

	if name, ok := refKindMap[k]; ok {
		return name
	}
	return "?"
}

// Names of the attributes this decoder understands. Any other attribute is
// preserved opaquely as an UnknownAttr.
const (
	AttrConstantValue        = "ConstantValue"
	AttrCode                 = "Code"
	AttrExceptions           = "Exceptions"
	AttrInnerClasses         = "InnerClasses"
	AttrSynthetic            = "Synthetic"
	AttrSignature            = "Signature"
	AttrSourceFile           = "SourceFile"
	AttrDeprecated           = "Deprecated"
	AttrVisibleAnnotations   = "RuntimeVisibleAnnotations"
	AttrInvisibleAnnotations = "RuntimeInvisibleAnnotations"
)

// JavaVersion maps a class file major version to the Java platform release
// that produces it. Unknown majors yield an empty string.
func JavaVersion(major uint16) string {
	if major < 45 {
		return ""
	}
	if major <= 48 {
		// 45..48 are the 1.x line.
		switch major {
		case 45:
			return "1.1"
		case 46:
			return "1.2"
		case 47:
			return "1.3"
		default:
			return "1.4"
		}
	}
	// Java 5 onward bumps the major once per release.
	return "Java " + strconv.Itoa(int(major)-44)
}
