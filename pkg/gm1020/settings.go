// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gm1020

import (
	"fmt"
	"strings"
)

// Settings is the meter's programmable configuration. All fields
// round-trip losslessly through the wire encoding except StoredSamples,
// which the meter reports but does not accept.
type Settings struct {
	AutoShutdown    bool
	ShutdownTimer   int // minutes, 1-240
	AutoLogging     bool
	LoggingInterval int // seconds, 1-3600
	Fahrenheit      bool
	Footcandle      bool

	// StoredSamples is the number of samples currently held in EEPROM.
	// Read-only: ignored by NewConfigure.
	StoredSamples int
}

// DecodeStatusReply decodes the meter's 8-byte status reply.
func DecodeStatusReply(b []byte) (Settings, error) {
	if len(b) != FrameSize {
		return Settings{}, fmt.Errorf("status reply: got %d bytes, want %d", len(b), FrameSize)
	}
	return Settings{
		StoredSamples:   int(b[0])<<8 | int(b[1]),
		AutoShutdown:    b[2] != 0,
		ShutdownTimer:   int(b[3]),
		AutoLogging:     b[4] != 0,
		LoggingInterval: int(b[5])<<8 | int(b[6]),
		Fahrenheit:      b[7]&0x01 != 0,
		Footcandle:      b[7]&0x02 != 0,
	}, nil
}

// String renders the settings the way the meter's setup screen lists them.
func (s Settings) String() string {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	plural := func(n int, unit string) string {
		if n == 1 {
			return unit
		}
		return unit + "s"
	}

	var units []string
	if s.Footcandle {
		units = append(units, "fc")
	} else {
		units = append(units, "lux")
	}
	if s.Fahrenheit {
		units = append(units, "F")
	} else {
		units = append(units, "C")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "automatic shutdown: %s\n", yesNo(s.AutoShutdown))
	fmt.Fprintf(&b, "shutdown timer: %d %s\n", s.ShutdownTimer, plural(s.ShutdownTimer, "minute"))
	fmt.Fprintf(&b, "automatic logging: %s\n", yesNo(s.AutoLogging))
	fmt.Fprintf(&b, "logging timer: %d %s\n", s.LoggingInterval, plural(s.LoggingInterval, "second"))
	fmt.Fprintf(&b, "stored samples: %d\n", s.StoredSamples)
	fmt.Fprintf(&b, "unit: %s\n", strings.Join(units, " "))
	return b.String()
}
