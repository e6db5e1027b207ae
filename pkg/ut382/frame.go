// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package ut382

import (
	"fmt"
	"strings"
)

// Frame is one raw 33-byte protocol frame as read from the wire.
type Frame []byte

// FramingError describes the structural defects of an invalid frame.
// A frame that fails validation can still be decoded for diagnostics,
// but its readings must not be trusted.
type FramingError struct {
	Defects []string
}

// Error implements the error interface
func (e *FramingError) Error() string {
	return "framing: " + strings.Join(e.Defects, "; ")
}

// Validate checks the frame structure: correct length, the fixed high
// nibble on each of the first 30 bytes, and the CR/LF trailer.
// Returns nil for a well-formed frame.
func (f Frame) Validate() *FramingError {
	var defects []string

	if len(f) != FrameSize {
		defects = append(defects, fmt.Sprintf("wrong length %d (want %d)", len(f), FrameSize))
	}
	for i, b := range f {
		if i >= 30 {
			break
		}
		if b&prefixMask != prefixValue {
			defects = append(defects, fmt.Sprintf("bad prefix 0x%02X at byte %d", b, i))
		}
	}
	if len(f) > 30 && f[30] != byteCR {
		defects = append(defects, fmt.Sprintf("byte 30 is 0x%02X (want CR)", f[30]))
	}
	if len(f) > 31 && f[31] != byteLF {
		defects = append(defects, fmt.Sprintf("byte 31 is 0x%02X (want LF)", f[31]))
	}

	if defects == nil {
		return nil
	}
	return &FramingError{Defects: defects}
}

// DataBytes reconstructs the 15 data bytes from the frame's nibble pairs.
// The low nibble of each even-offset byte supplies the low 4 bits and the
// low nibble of the following odd-offset byte the high 4 bits. Decoding is
// best-effort on malformed frames: short input yields fewer bytes.
func (f Frame) DataBytes() []byte {
	data := make([]byte, 0, DataSize)
	for i := 1; i < len(f) && i < 31; i += 2 {
		data = append(data, f[i-1]&0x0F|(f[i]&0x0F)<<4)
	}
	return data
}
