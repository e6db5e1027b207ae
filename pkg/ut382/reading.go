// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package ut382

import (
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
)

// InMenu reports whether the frame was captured while the meter is in a
// setup screen. Menu frames carry no measurement and are skipped from
// the live reading stream.
func InMenu(m FieldMap) bool {
	return m[FieldMenu].Kind == KindToken
}

// LowBattery reports whether the frame carries the low-battery flag.
func LowBattery(m FieldMap) bool {
	return m[FieldLowBattery].IsSet()
}

// underflow matches the display pattern the meter shows below its
// measurement range: blank, 0, L, blank across the main digits.
func underflow(m FieldMap) bool {
	return m[FieldDigitThousands].Kind == KindAbsent &&
		m[FieldDigitHundreds].Kind == KindDigit && m[FieldDigitHundreds].Digit == 0 &&
		m[FieldDigitTens].Kind == KindToken && m[FieldDigitTens].Token == "L" &&
		m[FieldDigitUnits].Kind == KindAbsent
}

// ComposeReading combines the decoded digit and flag fields into a typed
// reading. A blank digit contributes nothing to its place value, which is
// distinct from the digit zero. The underflow display pattern yields an
// out-of-range reading rather than a number.
//
// The scale field (byte 10) is decoded but deliberately not applied here:
// the composed magnitude is already fully determined by the digit and
// decimal-point fields, and applying the range indicator on top has not
// been confirmed against reference hardware.
func ComposeReading(m FieldMap, ts time.Time) meter.Reading {
	r := meter.Reading{
		Time:     ts,
		Decimals: 2,
		Unit:     unitToken(m),
	}

	if underflow(m) {
		return r
	}

	lux := 0.0
	place := 1.0
	for _, f := range []Field{FieldDigitUnits, FieldDigitTens, FieldDigitHundreds, FieldDigitThousands} {
		if v := m[f]; v.Kind == KindDigit {
			lux += float64(v.Digit) * place
		}
		place *= 10
	}

	exact := true
	switch {
	case m[FieldTenths].IsSet():
		lux *= 0.1
		exact = false
	case m[FieldHundredths].IsSet():
		lux *= 0.01
		exact = false
	case m[FieldThousandths].IsSet():
		lux *= 0.001
		exact = false
	}
	if m[FieldTimes10].IsSet() {
		lux *= 10
	}

	r.Intensity = meter.Float(lux)
	r.Exact = exact
	return r
}

func unitToken(m FieldMap) meter.Unit {
	if v := m[FieldUnit]; v.Kind == KindToken {
		return meter.Unit(v.Token)
	}
	return meter.UnitUnknown
}
