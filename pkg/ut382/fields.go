// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package ut382

import "sort"

// Field names the semantic fields extracted from a decoded frame.
type Field string

// LCD fields
const (
	FieldDigitUnits     Field = "digit_1"
	FieldDigitTens      Field = "digit_10"
	FieldDigitHundreds  Field = "digit_100"
	FieldDigitThousands Field = "digit_1000"

	FieldSubUnits     Field = "sub_digit_1"
	FieldSubTens      Field = "sub_digit_10"
	FieldSubHundreds  Field = "sub_digit_100"
	FieldSubThousands Field = "sub_digit_1000"

	FieldTenths      Field = "point_10ths"
	FieldHundredths  Field = "point_100ths"
	FieldThousandths Field = "point_1000ths"

	FieldMode       Field = "mode"
	FieldAutoRange  Field = "auto"
	FieldScale      Field = "scale"
	FieldUnit       Field = "unit"
	FieldTimes10    Field = "x10"
	FieldPowerOff   Field = "poweroff"
	FieldLowBattery Field = "batt"
	FieldRecording  Field = "rec"
	FieldUSB        Field = "usb"
	FieldMenu       Field = "menu"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

// Value kinds
const (
	KindAbsent ValueKind = iota
	KindBool
	KindDigit
	KindToken
	KindTokenSet
)

// Value is one decoded field value. Exactly the variant named by Kind is
// meaningful; an absent value means the field's bit pattern matched no
// table entry (segment blank, or an unknown glyph).
type Value struct {
	Kind   ValueKind
	Bool   bool
	Digit  int
	Token  string
	Tokens []string
}

func boolValue(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func digitValue(n int) Value    { return Value{Kind: KindDigit, Digit: n} }
func tokenValue(s string) Value { return Value{Kind: KindToken, Token: s} }

// IsSet reports whether a boolean field is present and true.
func (v Value) IsSet() bool {
	return v.Kind == KindBool && v.Bool
}

// FieldMap holds the decoded value of every known field for one frame.
// Built fresh per frame, never mutated afterwards.
type FieldMap map[Field]Value

// sevenSegment maps LCD segment patterns to digits and glyph tokens.
// 0x00 is a blank segment (absent value).
var sevenSegment = map[byte]Value{
	0x7B: digitValue(0),
	0x60: digitValue(1),
	0x5E: digitValue(2),
	0x7C: digitValue(3),
	0x65: digitValue(4),
	0x3D: digitValue(5),
	0x3F: digitValue(6),
	0x70: digitValue(7),
	0x7F: digitValue(8),
	0x7D: digitValue(9),
	0x6B: tokenValue("U"),
	0x2F: tokenValue("b"),
	0x77: tokenValue("A"),
	0x57: tokenValue("P"),
	0x1F: tokenValue("E"),
	0x1B: tokenValue("C"),
	0x6D: tokenValue("d"),
	0x6E: tokenValue("d"),
	0x17: tokenValue("F"),
	0x56: tokenValue("?"),
	0x0B: tokenValue("L"),
}

func flagTable(mask byte) map[byte]Value {
	return map[byte]Value{0x00: boolValue(false), mask: boolValue(true)}
}

// descriptor defines how one field is extracted: which reconstructed data
// byte it lives in, the bit mask covering it, and the value lookup table.
// Bitwise fields test each sub-bit of the mask individually and collect
// every matching token.
type descriptor struct {
	field   Field
	index   int
	mask    byte
	bitwise bool
	lookup  map[byte]Value
}

var fieldTable = []descriptor{
	{field: FieldDigitUnits, index: 1, mask: 0x7F, lookup: sevenSegment},
	{field: FieldDigitTens, index: 2, mask: 0x7F, lookup: sevenSegment},
	{field: FieldDigitHundreds, index: 3, mask: 0x7F, lookup: sevenSegment},
	{field: FieldDigitThousands, index: 4, mask: 0x7F, lookup: sevenSegment},
	{field: FieldSubUnits, index: 5, mask: 0x7F, lookup: sevenSegment},
	{field: FieldSubTens, index: 6, mask: 0x7F, lookup: sevenSegment},
	{field: FieldSubHundreds, index: 7, mask: 0x7F, lookup: sevenSegment},
	{field: FieldSubThousands, index: 8, mask: 0x7F, lookup: sevenSegment},
	{field: FieldTenths, index: 2, mask: 0x80, lookup: flagTable(0x80)},
	{field: FieldHundredths, index: 3, mask: 0x80, lookup: flagTable(0x80)},
	{field: FieldThousandths, index: 4, mask: 0x80, lookup: flagTable(0x80)},
	{field: FieldMode, index: 11, mask: 0xFF, bitwise: true, lookup: map[byte]Value{
		0x10: tokenValue("hold"),
		0x20: tokenValue("max"),
		0x40: tokenValue("min"),
	}},
	{field: FieldAutoRange, index: 10, mask: 0x02, lookup: flagTable(0x02)},
	{field: FieldScale, index: 10, mask: 0xF0, lookup: map[byte]Value{
		0x00: digitValue(2),
		0x80: digitValue(20),
		0xC0: digitValue(200),
		0xE0: digitValue(2000),
		0xF0: digitValue(20000),
	}},
	{field: FieldUnit, index: 9, mask: 0x0C, lookup: map[byte]Value{
		0x08: tokenValue("lux"),
		0x04: tokenValue("fc"),
	}},
	{field: FieldTimes10, index: 9, mask: 0x01, lookup: flagTable(0x01)},
	{field: FieldPowerOff, index: 11, mask: 0x02, lookup: flagTable(0x02)},
	{field: FieldLowBattery, index: 9, mask: 0x10, lookup: flagTable(0x10)},
	{field: FieldRecording, index: 11, mask: 0x01, lookup: flagTable(0x01)},
	{field: FieldUSB, index: 9, mask: 0x20, lookup: flagTable(0x20)},
	{field: FieldMenu, index: 0, mask: 0xFF, lookup: map[byte]Value{
		0x20: tokenValue("usb"),
		0x30: tokenValue("apo"),
		0x40: tokenValue("rec"),
		0x50: tokenValue("code"),
		0x60: tokenValue("def"),
	}},
	// missing from the table: rel, clock, load number, full, sub colon
}

// DecodeFields extracts every known field from the reconstructed data
// bytes (see Frame.DataBytes) into a fresh FieldMap. Fields whose byte
// lies beyond the available data decode as absent.
func DecodeFields(data []byte) FieldMap {
	m := make(FieldMap, len(fieldTable))
	for _, d := range fieldTable {
		if d.index >= len(data) {
			m[d.field] = Value{}
			continue
		}
		b := data[d.index] & d.mask
		if d.bitwise {
			var tokens []string
			for bits, v := range d.lookup {
				if bits&b != 0 {
					tokens = append(tokens, v.Token)
				}
			}
			sort.Strings(tokens)
			m[d.field] = Value{Kind: KindTokenSet, Tokens: tokens}
			continue
		}
		v, ok := d.lookup[b]
		if !ok {
			v = Value{}
		}
		m[d.field] = v
	}
	return m
}
