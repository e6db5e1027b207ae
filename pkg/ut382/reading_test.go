// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package ut382

import (
	"math"
	"testing"
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
)

// dataBytes builds a 15-byte data block with the given bytes poked in.
func dataBytes(set map[int]byte) []byte {
	data := make([]byte, DataSize)
	for i, b := range set {
		data[i] = b
	}
	return data
}

// Seven-segment patterns used across the tests
const (
	seg0 = 0x7B
	seg1 = 0x60
	seg2 = 0x5E
	seg3 = 0x7C
	seg4 = 0x65
	seg5 = 0x3D
	segL = 0x0B
)

// ============================================================
// Field Decoding Tests
// ============================================================

func TestDecodeFields_Digits(t *testing.T) {
	data := dataBytes(map[int]byte{1: seg4, 2: seg3, 3: seg2, 4: seg1})
	m := DecodeFields(data)

	digits := map[Field]int{
		FieldDigitUnits:     4,
		FieldDigitTens:      3,
		FieldDigitHundreds:  2,
		FieldDigitThousands: 1,
	}
	for f, want := range digits {
		v := m[f]
		if v.Kind != KindDigit || v.Digit != want {
			t.Errorf("%s: expected digit %d, got %+v", f, want, v)
		}
	}
}

func TestDecodeFields_BlankIsAbsent(t *testing.T) {
	m := DecodeFields(dataBytes(nil))
	if m[FieldDigitThousands].Kind != KindAbsent {
		t.Errorf("blank segment should decode as absent, got %+v", m[FieldDigitThousands])
	}
}

func TestDecodeFields_UnknownGlyphIsAbsent(t *testing.T) {
	m := DecodeFields(dataBytes(map[int]byte{1: 0x01}))
	if m[FieldDigitUnits].Kind != KindAbsent {
		t.Errorf("unknown glyph should decode as absent, got %+v", m[FieldDigitUnits])
	}
}

func TestDecodeFields_DecimalFlagSharesDigitByte(t *testing.T) {
	// bit 7 of the tens byte is the tenths decimal point
	m := DecodeFields(dataBytes(map[int]byte{2: seg3 | 0x80}))
	if !m[FieldTenths].IsSet() {
		t.Error("tenths flag should be set")
	}
	if v := m[FieldDigitTens]; v.Kind != KindDigit || v.Digit != 3 {
		t.Errorf("tens digit should still decode, got %+v", v)
	}
}

func TestDecodeFields_Unit(t *testing.T) {
	tests := []struct {
		name string
		b9   byte
		want string
	}{
		{name: "lux", b9: 0x08, want: "lux"},
		{name: "footcandle", b9: 0x04, want: "fc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DecodeFields(dataBytes(map[int]byte{9: tt.b9}))
			if v := m[FieldUnit]; v.Kind != KindToken || v.Token != tt.want {
				t.Errorf("expected unit %q, got %+v", tt.want, v)
			}
		})
	}
}

func TestDecodeFields_ModeTokenSet(t *testing.T) {
	m := DecodeFields(dataBytes(map[int]byte{11: 0x30}))
	v := m[FieldMode]
	if v.Kind != KindTokenSet {
		t.Fatalf("mode should be a token set, got %+v", v)
	}
	if len(v.Tokens) != 2 || v.Tokens[0] != "hold" || v.Tokens[1] != "max" {
		t.Errorf("expected [hold max], got %v", v.Tokens)
	}
}

func TestDecodeFields_Menu(t *testing.T) {
	m := DecodeFields(dataBytes(map[int]byte{0: 0x30}))
	if !InMenu(m) {
		t.Error("byte 0 of 0x30 should read as a setup screen")
	}
	if m[FieldMenu].Token != "apo" {
		t.Errorf("expected menu token apo, got %+v", m[FieldMenu])
	}
}

func TestDecodeFields_ShortData(t *testing.T) {
	// fields beyond the available bytes decode as absent
	m := DecodeFields([]byte{0x00, seg5})
	if m[FieldUnit].Kind != KindAbsent {
		t.Errorf("field beyond data should be absent, got %+v", m[FieldUnit])
	}
}

// ============================================================
// Reading Composition Tests
// ============================================================

func TestComposeReading_Values(t *testing.T) {
	tests := []struct {
		name  string
		data  map[int]byte
		want  float64
		exact bool
	}{
		{
			name:  "integer reading",
			data:  map[int]byte{1: seg5, 2: seg2},
			want:  25,
			exact: true,
		},
		{
			name:  "one decimal place",
			data:  map[int]byte{1: seg4, 2: seg3 | 0x80, 3: seg2, 4: seg1},
			want:  123.4,
			exact: false,
		},
		{
			name:  "two decimal places",
			data:  map[int]byte{1: seg5, 2: seg2, 3: seg1 | 0x80},
			want:  1.25,
			exact: false,
		},
		{
			name:  "x10 range",
			data:  map[int]byte{1: seg0, 2: seg5, 9: 0x01},
			want:  500,
			exact: true,
		},
		{
			name:  "blank digit contributes nothing",
			data:  map[int]byte{2: seg5},
			want:  50,
			exact: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComposeReading(DecodeFields(dataBytes(tt.data)), time.Now())
			if r.Intensity == nil {
				t.Fatal("expected an in-range reading")
			}
			if math.Abs(*r.Intensity-tt.want) > 1e-9 {
				t.Errorf("expected %g, got %g", tt.want, *r.Intensity)
			}
			if r.Exact != tt.exact {
				t.Errorf("expected exact=%v, got %v", tt.exact, r.Exact)
			}
		})
	}
}

func TestComposeReading_Underflow(t *testing.T) {
	// blank, 0, L, blank across the main digits means below range
	data := dataBytes(map[int]byte{2: segL, 3: seg0})
	r := ComposeReading(DecodeFields(data), time.Now())
	if r.Intensity != nil {
		t.Errorf("underflow display should yield an out-of-range reading, got %g", *r.Intensity)
	}
}

func TestComposeReading_Unit(t *testing.T) {
	data := dataBytes(map[int]byte{1: seg1, 9: 0x08})
	r := ComposeReading(DecodeFields(data), time.Now())
	if r.Unit != meter.UnitLux {
		t.Errorf("expected lux, got %q", r.Unit)
	}
}

func TestLowBattery(t *testing.T) {
	if !LowBattery(DecodeFields(dataBytes(map[int]byte{9: 0x10}))) {
		t.Error("battery flag should be detected")
	}
	if LowBattery(DecodeFields(dataBytes(nil))) {
		t.Error("battery flag should not be detected on a blank frame")
	}
}
