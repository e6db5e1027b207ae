// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gm1020

import (
	"math"
	"testing"
	"time"
)

// ============================================================
// Intensity Decoding Tests
// ============================================================

func TestDecodeIntensity(t *testing.T) {
	tests := []struct {
		name  string
		hi    byte
		lo    byte
		want  float64
		exact bool
	}{
		{
			name: "one decimal digit",
			hi:   0x00, lo: 0x0A,
			want: 1.0, exact: false,
		},
		{
			name: "full 12-bit magnitude",
			hi:   0x0F, lo: 0xFF,
			want: 409.5, exact: false,
		},
		{
			name: "times ten range",
			hi:   0x40, lo: 0x64,
			want: 100, exact: true,
		},
		{
			name: "times hundred range",
			hi:   0x80, lo: 0x64,
			want: 1000, exact: true,
		},
		{
			name: "zero",
			hi:   0x00, lo: 0x00,
			want: 0, exact: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lux, exact := DecodeIntensity(tt.hi, tt.lo)
			if math.Abs(lux-tt.want) > 1e-9 {
				t.Errorf("expected %g lux, got %g", tt.want, lux)
			}
			if exact != tt.exact {
				t.Errorf("expected exact=%v, got %v", tt.exact, exact)
			}
		})
	}
}

func TestDecodeTemperature(t *testing.T) {
	if got := DecodeTemperature(0x00, 0xE7); got != 23.1 {
		t.Errorf("expected 23.1, got %g", got)
	}
}

// ============================================================
// Live Frame Tests
// ============================================================

func liveFrame(luxHi, luxLo, tempHi, tempLo byte) []byte {
	return []byte{liveSentinel0, liveSentinel1, luxHi, luxLo, liveSentinel4, tempHi, tempLo, liveSentinel7}
}

func TestDecodeLiveFrame(t *testing.T) {
	r, err := DecodeLiveFrame(liveFrame(0x01, 0xF4, 0x00, 0xE7), time.Now())
	if err != nil {
		t.Fatalf("DecodeLiveFrame: %v", err)
	}
	if r.Intensity == nil || *r.Intensity != 50.0 {
		t.Errorf("expected 50.0 lux, got %+v", r.Intensity)
	}
	if r.Temperature == nil || *r.Temperature != 23.1 {
		t.Errorf("expected 23.1 degrees, got %+v", r.Temperature)
	}
	if r.Exact {
		t.Error("a 12-bit magnitude carries a decimal digit")
	}
}

func TestDecodeLiveFrame_SentinelMismatch(t *testing.T) {
	b := liveFrame(0x01, 0xF4, 0x00, 0xE7)
	b[0] = 0x44

	r, err := DecodeLiveFrame(b, time.Now())
	mismatch, ok := err.(*MismatchError)
	if !ok {
		t.Fatalf("expected a MismatchError, got %v", err)
	}
	if len(mismatch.Frame) != FrameSize {
		t.Errorf("mismatch error should carry the raw frame, got %d bytes", len(mismatch.Frame))
	}
	// decode is still best-effort
	if r.Intensity == nil || *r.Intensity != 50.0 {
		t.Errorf("expected best-effort 50.0 lux, got %+v", r.Intensity)
	}
}

func TestDecodeLiveFrame_WrongLength(t *testing.T) {
	if _, err := DecodeLiveFrame([]byte{0x33, 0x22}, time.Now()); err == nil {
		t.Error("expected an error for a short frame")
	}
}

// ============================================================
// Dump Pair Tests
// ============================================================

func TestDecodeDumpPair(t *testing.T) {
	r := DecodeDumpPair(0x40, 0x64)
	if r.Intensity == nil || *r.Intensity != 1000 {
		t.Errorf("expected 1000 lux, got %+v", r.Intensity)
	}
	if !r.Exact {
		t.Error("times-ten range should decode exact")
	}
	if r.FormatIntensity() != "1000" {
		t.Errorf("expected display 1000, got %q", r.FormatIntensity())
	}
}

// ============================================================
// Status Reply Tests
// ============================================================

func TestDecodeStatusReply(t *testing.T) {
	reply := []byte{0x01, 0x2C, 0x01, 30, 0x01, 0x00, 0x3C, 0x03}
	set, err := DecodeStatusReply(reply)
	if err != nil {
		t.Fatalf("DecodeStatusReply: %v", err)
	}

	want := Settings{
		StoredSamples:   300,
		AutoShutdown:    true,
		ShutdownTimer:   30,
		AutoLogging:     true,
		LoggingInterval: 60,
		Fahrenheit:      true,
		Footcandle:      true,
	}
	if set != want {
		t.Errorf("settings mismatch:\n got %+v\nwant %+v", set, want)
	}
}

func TestDecodeStatusReply_ShortReply(t *testing.T) {
	if _, err := DecodeStatusReply([]byte{0x00}); err == nil {
		t.Error("expected an error for a short reply")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	// every configurable field must survive encode and status decode
	set := Settings{
		AutoShutdown:    true,
		ShutdownTimer:   120,
		AutoLogging:     true,
		LoggingInterval: 900,
		Footcandle:      true,
	}
	f, err := NewConfigure(set)
	if err != nil {
		t.Fatalf("NewConfigure: %v", err)
	}

	// the status reply uses the same layout shifted by the opcode byte
	reply := []byte{0x00, 0x00, f[1], f[2], f[3], f[4], f[5], f[6]}
	got, err := DecodeStatusReply(reply)
	if err != nil {
		t.Fatalf("DecodeStatusReply: %v", err)
	}
	got.StoredSamples = 0
	if got != set {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, set)
	}
}
