// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/saferwall/jclass/log"
)

// ClassVersion is the class file format version pair.
type ClassVersion struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
}

// InnerClassRecord is one entry of an InnerClasses attribute. Outer is nil
// for local and anonymous classes; InnerName is empty for anonymous ones.
type InnerClassRecord struct {
	Inner     Path        `json:"inner"`
	Outer     *Path       `json:"outer,omitempty"`
	InnerName string      `json:"inner_name,omitempty"`
	Flags     AccessFlags `json:"flags"`
}

// A File represents a decoded Java class file. The exported fields are
// immutable once Parse returns and may be shared across goroutines.
type File struct {
	Version ClassVersion `json:"version"`

	// RawConstants is the phase-1 pool, before index resolution.
	RawConstants []RawConst `json:"raw_constants,omitempty"`

	// Constants is the resolved pool. Slot 0 and the slot after every long
	// or double entry hold ConstUnusable.
	Constants []Const `json:"constants,omitempty"`

	Path       Path        `json:"path"`
	Super      Signature   `json:"super"`
	Flags      AccessFlags `json:"flags"`
	Interfaces []Signature `json:"interfaces,omitempty"`

	Fields  []Member `json:"fields,omitempty"`
	Methods []Member `json:"methods,omitempty"`

	Attributes []Attribute        `json:"attributes,omitempty"`
	InnerTypes []InnerClassRecord `json:"inner_types,omitempty"`
	TypeParams []FormalTypeParam  `json:"type_params,omitempty"`

	// SourceFile is the compilation unit name, when the compiler recorded
	// one.
	SourceFile string `json:"source_file,omitempty"`

	data   []byte
	mapped mmap.MMap
	f      *os.File
	opts   *Options
	logger *log.Helper
}

// Options for decoding.
type Options struct {

	// Maximum nesting depth accepted by the signature parser, by default
	// (DefaultMaxSignatureDepth).
	MaxSignatureDepth int

	// A custom logger.
	Logger log.Logger
}

// New instantiates a file instance with options given a file name.
func New(name string, opts *Options) (*File, error) {

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	// Memory map the file instead of reading it into a buffer.
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := newFile(opts)
	file.data = data
	file.mapped = data
	file.f = f
	return file, nil
}

// NewBytes instantiates a file instance with options given a memory buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	file := newFile(opts)
	file.data = data
	return file, nil
}

func newFile(opts *Options) *File {
	file := File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}

	if file.opts.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		file.logger = log.NewHelper(log.NewFilter(logger,
			log.FilterLevel(log.LevelError)))
	} else {
		file.logger = log.NewHelper(file.opts.Logger)
	}
	return &file
}

// Close closes the File.
func (f *File) Close() error {
	if f.mapped != nil {
		_ = f.mapped.Unmap()
	}

	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *File) maxSignatureDepth() int {
	if f.opts.MaxSignatureDepth > 0 {
		return f.opts.MaxSignatureDepth
	}
	return DefaultMaxSignatureDepth
}

func (f *File) parseSignature(s string) (Signature, error) {
	return parseSignatureDepth(s, f.maxSignatureDepth())
}

func (f *File) parseMethodSignature(s string) (MethodSig, error) {
	return parseMethodSignatureDepth(s, f.maxSignatureDepth())
}

// Parse performs the decoding of a class file image. Decoding is one-shot
// and top-down; any parse error aborts the decode with no recovery path.
func (f *File) Parse() error {

	r := newReader(f.data)

	// Magic. At most 4 bytes are consumed before this check fails.
	magic, err := r.readU32()
	if err != nil {
		return err
	}
	if magic != ClassMagic {
		return fmt.Errorf("%w: 0x%08X", ErrBadMagic, magic)
	}

	// Minor comes before major.
	if f.Version.Minor, err = r.readU16(); err != nil {
		return err
	}
	if f.Version.Major, err = r.readU16(); err != nil {
		return err
	}

	// Constant pool, raw then resolved.
	if f.RawConstants, err = f.parseRawConstantPool(r); err != nil {
		return err
	}
	if f.Constants, err = f.expandConstantPool(f.RawConstants); err != nil {
		return err
	}

	// Class access flags.
	rawFlags, err := r.readU16()
	if err != nil {
		return err
	}
	if f.Flags, err = parseAccessFlags(rawFlags, classFlagTable); err != nil {
		return err
	}

	// This class.
	thisIndex, err := r.readU16()
	if err != nil {
		return err
	}
	if f.Path, err = f.classAt(thisIndex); err != nil {
		return err
	}

	// Super class. Index 0 means java.lang.Object, whether or not the pool
	// happens to hold such an entry.
	superIndex, err := r.readU16()
	if err != nil {
		return err
	}
	if superIndex == 0 {
		f.Super = objectClassType()
	} else {
		path, err := f.classAt(superIndex)
		if err != nil {
			return err
		}
		f.Super = ObjectType{Path: path}
	}

	// Direct interfaces.
	ifaceCount, err := r.readU16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < ifaceCount; i++ {
		index, err := r.readU16()
		if err != nil {
			return err
		}
		path, err := f.classAt(index)
		if err != nil {
			return err
		}
		f.Interfaces = append(f.Interfaces, ObjectType{Path: path})
	}

	// Fields, then methods.
	fieldCount, err := r.readU16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < fieldCount; i++ {
		m, err := f.parseMember(r, MemberField)
		if err != nil {
			return err
		}
		f.Fields = append(f.Fields, m)
	}

	methodCount, err := r.readU16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < methodCount; i++ {
		m, err := f.parseMember(r, MemberMethod)
		if err != nil {
			return err
		}
		f.Methods = append(f.Methods, m)
	}

	// Class-level attributes.
	f.Attributes, err = f.parseAttributes(r, f.classAttrHook())
	return err
}

// classAttrHook intercepts the attributes that fold into the class record
// itself.
func (f *File) classAttrHook() attrOverride {
	return func(name string, length uint32, r *reader) (Attribute, bool, error) {
		switch name {

		case AttrInnerClasses:
			records, err := f.parseInnerClasses(r)
			if err != nil {
				return nil, false, err
			}
			f.InnerTypes = records
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
			sig, err := parseGenericClassSignatureDepth(s, f.maxSignatureDepth())
			if err != nil {
				return nil, false, err
			}
			f.TypeParams = sig.TypeParams
			f.Super = sig.Super
			f.Interfaces = sig.Interfaces
			return nil, true, nil

		case AttrSourceFile:
			index, err := r.readU16()
			if err != nil {
				return nil, false, err
			}
			source, err := f.stringAt(index)
			if err != nil {
				return nil, false, err
			}
			f.SourceFile = source
			return nil, true, nil

		case AttrSynthetic:
			f.Flags = f.Flags.with(FlagSynthetic)
			return nil, true, nil
		}

		return nil, false, nil
	}
}

func (f *File) parseInnerClasses(r *reader) ([]InnerClassRecord, error) {
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	records := make([]InnerClassRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		innerIndex, err := r.readU16()
		if err != nil {
			return nil, err
		}
		outerIndex, err := r.readU16()
		if err != nil {
			return nil, err
		}
		nameIndex, err := r.readU16()
		if err != nil {
			return nil, err
		}
		rawFlags, err := r.readU16()
		if err != nil {
			return nil, err
		}

		var record InnerClassRecord
		if record.Inner, err = f.classAt(innerIndex); err != nil {
			return nil, err
		}
		if outerIndex != 0 {
			outer, err := f.classAt(outerIndex)
			if err != nil {
				return nil, err
			}
			record.Outer = &outer
		}
		if nameIndex != 0 {
			if record.InnerName, err = f.stringAt(nameIndex); err != nil {
				return nil, err
			}
		}
		if record.Flags, err = parseAccessFlags(rawFlags, innerClassFlagTable); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// constAt returns the resolved constant at a pool index.
func (f *File) constAt(index uint16) (Const, error) {
	if index == 0 || int(index) >= len(f.Constants) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConstantIndex, index)
	}
	c := f.Constants[index]
	if _, unusable := c.(ConstUnusable); unusable {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConstantIndex, index)
	}
	return c, nil
}

// utf8At returns the raw payload of the Utf8 constant at a pool index.
func (f *File) utf8At(index uint16) ([]byte, error) {
	c, err := f.constAt(index)
	if err != nil {
		return nil, err
	}
	utf8, ok := c.(ConstUtf8)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedConstantKind, index)
	}
	return utf8.Bytes, nil
}

// stringAt returns the decoded form of the Utf8 constant at a pool index.
func (f *File) stringAt(index uint16) (string, error) {
	b, err := f.utf8At(index)
	if err != nil {
		return "", err
	}
	return DecodeModifiedUTF8(b)
}

// classAt returns the path of the Class constant at a pool index.
func (f *File) classAt(index uint16) (Path, error) {
	c, err := f.constAt(index)
	if err != nil {
		return Path{}, err
	}
	class, ok := c.(ConstClass)
	if !ok {
		return Path{}, fmt.Errorf("%w: %d", ErrUnexpectedConstantKind, index)
	}
	return class.Path, nil
}

// objectClassType is the implied super of a class whose super index is 0.
func objectClassType() ObjectType {
	return ObjectType{Path: Path{Package: []string{"java", "lang"}, Name: "Object"}}
}
