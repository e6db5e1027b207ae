// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

// Package meter defines the measurement type shared by the luxmeter
// protocol drivers, plus the stream transforms applied to live readings.
package meter

import (
	"strconv"
	"time"
)

// Unit identifies the illuminance unit reported by a meter.
type Unit string

// Illuminance units
const (
	UnitLux        Unit = "lux"
	UnitFootcandle Unit = "fc"
	UnitUnknown    Unit = ""
)

// Reading is one measurement emitted by a meter.
//
// A nil Intensity is a meaningful state: the instrument is over or under
// range. It is distinct from a reading of zero.
type Reading struct {
	Time        time.Time
	Intensity   *float64 // nil = out of range
	Exact       bool     // true when the display carries no decimal point
	Decimals    int      // display precision when not exact
	Unit        Unit
	Temperature *float64 // degrees, nil if the protocol does not report one
}

// Valid reports whether the reading carries a numeric intensity.
func (r Reading) Valid() bool {
	return r.Intensity != nil
}

// FormatIntensity renders the intensity the way the meter displays it:
// no decimals for exact integer readings, fixed precision otherwise.
// Returns the empty string for an out-of-range reading.
func (r Reading) FormatIntensity() string {
	if r.Intensity == nil {
		return ""
	}
	if r.Exact {
		return strconv.FormatFloat(*r.Intensity, 'f', 0, 64)
	}
	return strconv.FormatFloat(*r.Intensity, 'f', r.Decimals, 64)
}

// FormatTemperature renders the temperature with one decimal digit,
// or the empty string if the reading has none.
func (r Reading) FormatTemperature() string {
	if r.Temperature == nil {
		return ""
	}
	return strconv.FormatFloat(*r.Temperature, 'f', 1, 64)
}

// Float is a convenience for building optional intensity values.
func Float(v float64) *float64 {
	return &v
}
