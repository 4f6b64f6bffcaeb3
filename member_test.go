// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseFieldConstantValue(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("MAX_RETRIES")
	descIndex := cp.utf8("I")
	cvNameIndex := cp.utf8(AttrConstantValue)
	valueIndex := cp.integer(5)
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0019) // public static final
	b.u16(nameIndex).u16(descIndex)
	b.u16(1)
	b.u16(cvNameIndex).u32(2).u16(valueIndex)

	m, err := f.parseMember(newReader(b.bytes()), MemberField)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}

	if m.Name != "MAX_RETRIES" || m.Kind != MemberField {
		t.Errorf("member identity got (%q, %v)", m.Name, m.Kind)
	}
	if !reflect.DeepEqual(m.Constant, ConstInt{Value: 5}) {
		t.Errorf("Constant got %#v, want ConstInt{5}", m.Constant)
	}
	if len(m.Attributes) != 0 {
		t.Errorf("ConstantValue should be dropped from the list, got %#v", m.Attributes)
	}
	if !reflect.DeepEqual(m.VMSignature, TypeInt) || !reflect.DeepEqual(m.Signature, TypeInt) {
		t.Errorf("signatures got (%#v, %#v), want int", m.VMSignature, m.Signature)
	}
}

func TestParseFieldConstantValueKindMismatch(t *testing.T) {

	// An int field whose ConstantValue resolves to a long.
	cp := newCP()
	nameIndex := cp.utf8("broken")
	descIndex := cp.utf8("I")
	cvNameIndex := cp.utf8(AttrConstantValue)
	valueIndex := cp.long(5)
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0008)
	b.u16(nameIndex).u16(descIndex)
	b.u16(1)
	b.u16(cvNameIndex).u32(2).u16(valueIndex)

	_, err := f.parseMember(newReader(b.bytes()), MemberField)
	if !errors.Is(err, ErrMalformedAttribute) {
		t.Errorf("got error %v, want %v", err, ErrMalformedAttribute)
	}
}

func TestParseFieldStringConstant(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("GREETING")
	descIndex := cp.utf8("Ljava/lang/String;")
	cvNameIndex := cp.utf8(AttrConstantValue)
	valueIndex := cp.stringRef(cp.utf8("hi"))
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0019)
	b.u16(nameIndex).u16(descIndex)
	b.u16(1)
	b.u16(cvNameIndex).u32(2).u16(valueIndex)

	m, err := f.parseMember(newReader(b.bytes()), MemberField)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}
	if !reflect.DeepEqual(m.Constant, ConstString{Value: "hi"}) {
		t.Errorf("Constant got %#v, want ConstString{hi}", m.Constant)
	}
}

func TestParseFieldSyntheticAttr(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("this$0")
	descIndex := cp.utf8("LOuter;")
	synNameIndex := cp.utf8(AttrSynthetic)
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0010) // final
	b.u16(nameIndex).u16(descIndex)
	b.u16(1)
	b.u16(synNameIndex).u32(0)

	m, err := f.parseMember(newReader(b.bytes()), MemberField)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}
	if !m.Flags.Has(FlagSynthetic) {
		t.Errorf("Synthetic flag not folded in, flags %v", m.Flags)
	}
	if len(m.Attributes) != 0 {
		t.Errorf("Synthetic should be dropped from the list, got %#v", m.Attributes)
	}
}

func TestParseFieldSignatureOverride(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("items")
	descIndex := cp.utf8("Ljava/util/List;")
	sigNameIndex := cp.utf8(AttrSignature)
	sigIndex := cp.utf8("Ljava/util/List<Ljava/lang/String;>;")
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0002) // private
	b.u16(nameIndex).u16(descIndex)
	b.u16(1)
	b.u16(sigNameIndex).u32(2).u16(sigIndex)

	m, err := f.parseMember(newReader(b.bytes()), MemberField)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}

	wantVM := obj("java/util", "List")
	wantRefined := obj("java/util", "List", exact(obj("java/lang", "String")))
	if !reflect.DeepEqual(m.VMSignature, wantVM) {
		t.Errorf("VMSignature got %#v, want %#v", m.VMSignature, wantVM)
	}
	if !reflect.DeepEqual(m.Signature, wantRefined) {
		t.Errorf("Signature got %#v, want %#v", m.Signature, wantRefined)
	}
}

func TestParseMethodCodeAndExceptions(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("run")
	descIndex := cp.utf8("()V")
	codeNameIndex := cp.utf8(AttrCode)
	excNameIndex := cp.utf8(AttrExceptions)
	ioExcIndex := cp.classNamed("java/io/IOException")
	f := fileWithPool(t, cp)

	codeBody := []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0xB1}

	var b classBuilder
	b.u16(0x0001) // public
	b.u16(nameIndex).u16(descIndex)
	b.u16(2)
	b.u16(codeNameIndex).u32(uint32(len(codeBody))).raw(codeBody)
	b.u16(excNameIndex).u32(4).u16(1).u16(ioExcIndex)

	m, err := f.parseMember(newReader(b.bytes()), MemberMethod)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}

	if m.Code == nil || !reflect.DeepEqual(m.Code.Data, codeBody) {
		t.Errorf("Code got %#v, want the raw body preserved", m.Code)
	}
	// Code stays in the attribute list as well.
	if len(m.Attributes) != 1 || m.Attributes[0].AttrName() != AttrCode {
		t.Errorf("attribute list got %#v, want the Code record", m.Attributes)
	}
	wantThrows := []Signature{obj("java/io", "IOException")}
	if !reflect.DeepEqual(m.Throws, wantThrows) {
		t.Errorf("Throws got %#v, want %#v", m.Throws, wantThrows)
	}
}

func TestParseMethodSignatureAttrOverride(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("identity")
	descIndex := cp.utf8("(Ljava/lang/Object;)V")
	sigNameIndex := cp.utf8(AttrSignature)
	sigIndex := cp.utf8("<T:Ljava/lang/Object;>(TT;)V")
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0001)
	b.u16(nameIndex).u16(descIndex)
	b.u16(1)
	b.u16(sigNameIndex).u32(2).u16(sigIndex)

	m, err := f.parseMember(newReader(b.bytes()), MemberMethod)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}

	wantVM := MethodSig{Args: []Signature{obj("java/lang", "Object")}}
	if !reflect.DeepEqual(m.VMSignature, wantVM) {
		t.Errorf("VMSignature got %#v, want %#v", m.VMSignature, wantVM)
	}
	wantRefined := MethodSig{Args: []Signature{TypeVariable{Name: "T"}}}
	if !reflect.DeepEqual(m.Signature, wantRefined) {
		t.Errorf("Signature got %#v, want %#v", m.Signature, wantRefined)
	}
	wantParams := []FormalTypeParam{{Name: "T", Extends: obj("java/lang", "Object")}}
	if !reflect.DeepEqual(m.TypeParams, wantParams) {
		t.Errorf("TypeParams got %#v, want %#v", m.TypeParams, wantParams)
	}
	if len(m.Throws) != 0 {
		t.Errorf("Throws got %#v, want none", m.Throws)
	}
}

func TestParseMethodSignatureAttrThrowsOverride(t *testing.T) {

	cp := newCP()
	nameIndex := cp.utf8("work")
	descIndex := cp.utf8("()V")
	excNameIndex := cp.utf8(AttrExceptions)
	excIndex := cp.classNamed("java/lang/Exception")
	sigNameIndex := cp.utf8(AttrSignature)
	sigIndex := cp.utf8("()V^TX;")
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x0001)
	b.u16(nameIndex).u16(descIndex)
	b.u16(2)
	b.u16(excNameIndex).u32(4).u16(1).u16(excIndex)
	b.u16(sigNameIndex).u32(2).u16(sigIndex)

	m, err := f.parseMember(newReader(b.bytes()), MemberMethod)
	if err != nil {
		t.Fatalf("parseMember failed, reason: %v", err)
	}

	// The generic throws clause wins over the Exceptions attribute.
	wantThrows := []Signature{TypeVariable{Name: "X"}}
	if !reflect.DeepEqual(m.Throws, wantThrows) {
		t.Errorf("Throws got %#v, want %#v", m.Throws, wantThrows)
	}
}

func TestParseMemberUnusableFlag(t *testing.T) {

	cp := newCP()
	cp.utf8("x")
	f := fileWithPool(t, cp)

	var b classBuilder
	b.u16(0x2000) // bit 13 is not legal on a method
	_, err := f.parseMember(newReader(b.bytes()), MemberMethod)
	if err == nil {
		t.Fatal("parseMember should fail on an unusable flag bit")
	}
	if !errors.Is(err, ErrUnusableFlagBit) {
		t.Errorf("got error %v, want %v", err, ErrUnusableFlagBit)
	}
}
