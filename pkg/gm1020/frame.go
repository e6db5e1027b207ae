// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gm1020

import "fmt"

// Frame is one 8-byte command or reply frame.
type Frame [FrameSize]byte

// Checksum computes the frame checksum: the sum of the first seven bytes
// modulo 256.
func (f Frame) Checksum() byte {
	var sum byte
	for _, b := range f[:FrameSize-1] {
		sum += b
	}
	return sum
}

// Sealed returns a copy of the frame with its checksum byte filled in.
func (f Frame) Sealed() Frame {
	f[FrameSize-1] = f.Checksum()
	return f
}

// ChecksumValid reports whether the frame's last byte matches its
// computed checksum.
func (f Frame) ChecksumValid() bool {
	return f[FrameSize-1] == f.Checksum()
}

// Command builders. Each returns a complete frame with a valid checksum.

// NewStatusQuery creates a status query frame (opcode 0x1E).
// The meter replies with an 8-byte settings snapshot (see DecodeStatusReply).
func NewStatusQuery() Frame {
	return Frame{OpStatus}.Sealed()
}

// NewDumpCommand creates a memory dump request (opcode 0x2D).
// The meter replies with 2-byte sample pairs terminated by 0xFF 0xFF.
func NewDumpCommand() Frame {
	return Frame{OpDumpMemory}.Sealed()
}

// NewLiveStart creates a live-stream start frame (opcode 0x3C/0x01).
func NewLiveStart() Frame {
	return Frame{OpLive, LiveStart}.Sealed()
}

// NewLiveStop creates a live-stream stop frame (opcode 0x3C/0x02).
func NewLiveStop() Frame {
	return Frame{OpLive, LiveStop}.Sealed()
}

// NewClearMemory creates a clear-memory frame (opcode 0x4B).
// The meter echoes the frame on success.
func NewClearMemory() Frame {
	return Frame{OpClear}.Sealed()
}

// NewConfigure creates a configure frame (opcode 0x5A) carrying the
// given settings. Feature flags are OR-combined into the template, the
// shutdown timer is written as one byte of minutes, and the logging
// interval as a big-endian 16-bit count of seconds.
func NewConfigure(s Settings) (Frame, error) {
	if s.ShutdownTimer < ShutdownTimerMin || s.ShutdownTimer > ShutdownTimerMax {
		return Frame{}, fmt.Errorf("shutdown timer %d out of range [%d,%d]",
			s.ShutdownTimer, ShutdownTimerMin, ShutdownTimerMax)
	}
	if s.LoggingInterval < LoggingIntervalMin || s.LoggingInterval > LoggingIntervalMax {
		return Frame{}, fmt.Errorf("logging interval %d out of range [%d,%d]",
			s.LoggingInterval, LoggingIntervalMin, LoggingIntervalMax)
	}

	f := Frame{OpConfigure}
	if s.AutoShutdown {
		f[1] |= maskAutoShutdown
	}
	if s.AutoLogging {
		f[3] |= maskAutoLogging
	}
	if s.Fahrenheit {
		f[6] |= maskFahrenheit
	}
	if s.Footcandle {
		f[6] |= maskFootcandle
	}
	f[2] = byte(s.ShutdownTimer)
	f[4] = byte(s.LoggingInterval >> 8)
	f[5] = byte(s.LoggingInterval & 0xFF)
	return f.Sealed(), nil
}
