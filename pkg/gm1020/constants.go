// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

// Package gm1020 implements the Benetech GM1020 logging luxmeter protocol.
//
// The meter speaks a command/response protocol of fixed 8-byte frames
// whose last byte is a mod-256 checksum over the preceding seven. This
// package provides frame builders, reply decoding, and a session type
// that owns the live stream and memory dump state.
package gm1020

import "time"

// Serial parameters
const (
	BaudRate = 19200

	// DefaultReadTimeout bounds command replies.
	DefaultReadTimeout = 200 * time.Millisecond

	// LiveReadTimeout bounds live-sample reads; the meter emits two
	// samples per second.
	LiveReadTimeout = time.Second

	// drainTimeout bounds reads while flushing buffered live frames.
	// Frames arrive every 500 ms, so 50 ms of silence means the
	// buffer is empty.
	drainTimeout = 50 * time.Millisecond
)

// Frame structure
const (
	FrameSize = 8
)

// Command opcodes (frame byte 0)
const (
	OpStatus     = 0x1E
	OpDumpMemory = 0x2D
	OpLive       = 0x3C // byte 1 selects start or stop
	OpClear      = 0x4B
	OpConfigure  = 0x5A
)

// Live sub-commands (frame byte 1 under OpLive)
const (
	LiveStart = 0x01
	LiveStop  = 0x02
)

// Configure bitmasks, OR-combined into the configure template
const (
	maskAutoShutdown = 0x01 // byte 1
	maskAutoLogging  = 0x01 // byte 3
	maskFahrenheit   = 0x01 // byte 6
	maskFootcandle   = 0x02 // byte 6
)

// Live-sample sentinel bytes
const (
	liveSentinel0 = 0x33
	liveSentinel1 = 0x22
	liveSentinel4 = 0x01
	liveSentinel7 = 0x11
)

// Packed-intensity flag bits (16-bit value from bytes 2-3)
const (
	intensityMagnitude = 0x0FFF // magnitude x10
	intensityTimes10   = 0x4000
	intensityTimes100  = 0x8000
)

// dumpSentinel ends a memory dump: a 2-byte pair of 0xFF 0xFF.
const dumpSentinel = 0xFF

// Settings ranges
const (
	ShutdownTimerMin = 1 // minutes
	ShutdownTimerMax = 240

	LoggingIntervalMin = 1 // seconds
	LoggingIntervalMax = 3600
)

// SampleRate is the meter's nominal live sample rate in Hz.
const SampleRate = 2.0
