// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package ut382

import (
	"fmt"
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
)

// Statistics tracks frame and reading statistics for a live stream
type Statistics struct {
	StartTime time.Time

	// Counters
	TotalFrames   uint64
	ValidFrames   uint64
	FramingErrors uint64
	MenuFrames    uint64
	Readings      uint64
	OutOfRange    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // framing errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFrame counts one frame; pass the framing error for invalid frames
func (s *Statistics) RecordFrame(ferr *FramingError) {
	s.TotalFrames++
	if ferr != nil {
		s.FramingErrors++
		return
	}
	s.ValidFrames++
}

// RecordMenu counts a frame skipped because the meter is in a setup screen
func (s *Statistics) RecordMenu() {
	s.MenuFrames++
}

// RecordReading counts an emitted reading
func (s *Statistics) RecordReading(r meter.Reading) {
	s.Readings++
	if !r.Valid() {
		s.OutOfRange++
	}
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.FramingErrors) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, errorPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		errorPercent = float64(s.FramingErrors) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	if s.FramingErrors > 0 {
		result += fmt.Sprintf("Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, errorPercent)
	}
	if s.MenuFrames > 0 {
		result += fmt.Sprintf("Menu Frames:     %8d\n", s.MenuFrames)
	}
	result += fmt.Sprintf("Readings:        %8d\n", s.Readings)
	if s.OutOfRange > 0 {
		result += fmt.Sprintf("Out of Range:    %8d\n", s.OutOfRange)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
