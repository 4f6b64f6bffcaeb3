// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package jclass

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccessFlag is one decoded modifier bit. Which bits are legal depends on
// the enclosing element; FlagUnusable marks positions that are not legal in
// the current context, and a set unusable bit is a parse error.
type AccessFlag uint8

const (
	FlagUnusable AccessFlag = iota
	FlagPublic
	FlagPrivate
	FlagProtected
	FlagStatic
	FlagFinal
	FlagSuper
	FlagSynchronized
	FlagVolatile
	FlagBridge
	FlagTransient
	FlagVarArgs
	FlagNative
	FlagInterface
	FlagAbstract
	FlagStrict
	FlagSynthetic
	FlagAnnotation
	FlagEnum
)

// String stringifies the access flag.
func (f AccessFlag) String() string {
	flagMap := map[AccessFlag]string{
		FlagUnusable:     "Unusable",
		FlagPublic:       "Public",
		FlagPrivate:      "Private",
		FlagProtected:    "Protected",
		FlagStatic:       "Static",
		FlagFinal:        "Final",
		FlagSuper:        "Super",
		FlagSynchronized: "Synchronized",
		FlagVolatile:     "Volatile",
		FlagBridge:       "Bridge",
		FlagTransient:    "Transient",
		FlagVarArgs:      "VarArgs",
		FlagNative:       "Native",
		FlagInterface:    "Interface",
		FlagAbstract:     "Abstract",
		FlagStrict:       "Strict",
		FlagSynthetic:    "Synthetic",
		FlagAnnotation:   "Annotation",
		FlagEnum:         "Enum",
	}

	if name, ok := flagMap[f]; ok {
		return name
	}
	return "?"
}

// AccessFlags is the decoded flag set of a class, member or inner class
// record, one bit per AccessFlag ordinal.
type AccessFlags uint32

// Has reports whether the flag is present in the set.
func (fs AccessFlags) Has(f AccessFlag) bool {
	return fs&(1<<f) != 0
}

// with returns the set extended by f.
func (fs AccessFlags) with(f AccessFlag) AccessFlags {
	return fs | 1<<f
}

// List returns the flags present in the set, in ordinal order.
func (fs AccessFlags) List() []AccessFlag {
	var flags []AccessFlag
	for f := FlagPublic; f <= FlagEnum; f++ {
		if fs.Has(f) {
			flags = append(flags, f)
		}
	}
	return flags
}

// String stringifies the flag set.
func (fs AccessFlags) String() string {
	var names []string
	for _, f := range fs.List() {
		names = append(names, f.String())
	}
	return strings.Join(names, "|")
}

// MarshalJSON emits the flag names rather than the bit set.
func (fs AccessFlags) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, f := range fs.List() {
		names = append(names, f.String())
	}
	return json.Marshal(names)
}

// Flag tables, one entry per bit position of the raw u16, low bit first.
// Positions holding FlagUnusable are not legal for that element kind; a
// table shorter than 16 leaves the remaining high bits unusable.
var (
	classFlagTable = []AccessFlag{
		FlagPublic, FlagUnusable, FlagUnusable, FlagUnusable,
		FlagFinal, FlagSuper, FlagUnusable, FlagUnusable,
		FlagUnusable, FlagInterface, FlagAbstract, FlagUnusable,
		FlagSynthetic, FlagAnnotation, FlagEnum,
	}

	fieldFlagTable = []AccessFlag{
		FlagPublic, FlagPrivate, FlagProtected, FlagStatic,
		FlagFinal, FlagUnusable, FlagVolatile, FlagTransient,
		FlagUnusable, FlagUnusable, FlagUnusable, FlagUnusable,
		FlagSynthetic, FlagUnusable, FlagEnum,
	}

	methodFlagTable = []AccessFlag{
		FlagPublic, FlagPrivate, FlagProtected, FlagStatic,
		FlagFinal, FlagSynchronized, FlagBridge, FlagVarArgs,
		FlagNative, FlagUnusable, FlagAbstract, FlagStrict,
		FlagSynthetic,
	}

	innerClassFlagTable = []AccessFlag{
		FlagPublic, FlagPrivate, FlagProtected, FlagStatic,
		FlagFinal, FlagUnusable, FlagUnusable, FlagUnusable,
		FlagUnusable, FlagInterface, FlagAbstract, FlagSynthetic,
		FlagAnnotation, FlagEnum,
	}
)

// parseAccessFlags decodes a raw u16 against the flag table of the
// enclosing element. A set bit whose table position is unusable is fatal;
// silently accepting it would mis-parse files using flag bits allocated by
// later JVM versions.
func parseAccessFlags(raw uint16, table []AccessFlag) (AccessFlags, error) {
	var flags AccessFlags
	for bit := 0; bit < 16; bit++ {
		if raw&(1<<bit) == 0 {
			continue
		}
		if bit >= len(table) || table[bit] == FlagUnusable {
			return 0, fmt.Errorf("%w: 0x%04x has bit %d set", ErrUnusableFlagBit, raw, bit)
		}
		flags = flags.with(table[bit])
	}
	return flags, nil
}
