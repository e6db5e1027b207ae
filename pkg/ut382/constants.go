// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

// Package ut382 implements the Uni-T UT382 luxmeter streaming protocol.
//
// The meter continuously transmits its LCD state as 33-byte frames at
// roughly 8 Hz with no explicit start or end marker beyond inter-byte
// timing gaps. This package provides frame synchronization, bit-field
// decoding of the LCD segments, and composition into typed readings.
package ut382

import "time"

// Serial parameters
const (
	BaudRate = 19200
)

// Frame structure
const (
	FrameSize = 33 // bytes on the wire per frame
	DataSize  = 15 // reconstructed data bytes after nibble pairing

	prefixMask  = 0xF0
	prefixValue = 0x30 // high nibble of every data byte
	byteCR      = 0x0D // frame byte 30
	byteLF      = 0x0A // frame byte 31
	// frame byte 32 might be a checksum; it is observed to be
	// inconsistent on real hardware and is not verified
)

// Read timeouts
const (
	// DefaultBurstTimeout is the inter-byte silence that closes a burst
	// during resynchronization.
	DefaultBurstTimeout = 20 * time.Millisecond

	// DefaultFrameTimeout bounds each fixed-size read in locked mode.
	// Frames arrive about every 125 ms.
	DefaultFrameTimeout = 250 * time.Millisecond
)

// SampleRate is the meter's nominal live sample rate in Hz.
const SampleRate = 8.0
