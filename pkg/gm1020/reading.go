// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gm1020

import (
	"fmt"
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
)

// MismatchError reports a live-sample frame whose sentinel bytes do not
// match the protocol. The frame was still decoded best-effort; callers
// should log the raw bytes and may use the reading with caution.
type MismatchError struct {
	Frame []byte
}

// Error implements the error interface
func (e *MismatchError) Error() string {
	s := "unrecognized live frame:"
	for _, b := range e.Frame {
		s += fmt.Sprintf(" 0x%02X", b)
	}
	return s
}

// DecodeIntensity unpacks the 16-bit intensity encoding shared by live
// samples and memory-dump pairs. The low 12 bits carry the magnitude
// times ten (one implied decimal digit); bit 14 instead scales the
// magnitude by ten with no decimal digit, and bit 15 by one hundred.
func DecodeIntensity(hi, lo byte) (lux float64, exact bool) {
	packed := uint16(hi)<<8 | uint16(lo)
	lux = float64(packed&intensityMagnitude) / 10.0
	if packed&intensityTimes10 != 0 {
		lux *= 10
		exact = true
	}
	if packed&intensityTimes100 != 0 {
		lux *= 100
		exact = true
	}
	return lux, exact
}

// DecodeTemperature unpacks a 16-bit temperature: the raw value divided
// by ten, always displayed with one decimal digit.
func DecodeTemperature(hi, lo byte) float64 {
	return float64(uint16(hi)<<8|uint16(lo)) / 10.0
}

// DecodeLiveFrame decodes an 8-byte live-sample frame into a reading.
//
// Bytes 0, 1, 4 and 7 must equal fixed sentinel values; on mismatch the
// returned error is a *MismatchError and the reading is still decoded
// best-effort from the usual byte positions.
func DecodeLiveFrame(b []byte, ts time.Time) (meter.Reading, error) {
	if len(b) != FrameSize {
		return meter.Reading{}, fmt.Errorf("live frame: got %d bytes, want %d", len(b), FrameSize)
	}

	lux, exact := DecodeIntensity(b[2], b[3])
	temp := DecodeTemperature(b[5], b[6])
	r := meter.Reading{
		Time:        ts,
		Intensity:   meter.Float(lux),
		Exact:       exact,
		Decimals:    1,
		Unit:        meter.UnitLux,
		Temperature: &temp,
	}

	if b[0] != liveSentinel0 || b[1] != liveSentinel1 ||
		b[4] != liveSentinel4 || b[7] != liveSentinel7 {
		return r, &MismatchError{Frame: append([]byte(nil), b...)}
	}
	return r, nil
}

// DecodeDumpPair decodes one 2-byte memory-dump sample using the packed
// intensity rule.
func DecodeDumpPair(hi, lo byte) meter.Reading {
	lux, exact := DecodeIntensity(hi, lo)
	return meter.Reading{
		Intensity: meter.Float(lux),
		Exact:     exact,
		Decimals:  1,
		Unit:      meter.UnitLux,
	}
}
