// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package meter

import "time"

// MovingAverage accumulates consecutive in-range readings and emits one
// averaged reading per full window. Out-of-range readings are skipped and
// do not count toward the window.
type MovingAverage struct {
	need  int
	sum   float64
	count int
}

// NewMovingAverage creates an averager over the given window duration,
// assuming the meter's expected sample rate in Hz. The window size in
// samples is window seconds times rate.
func NewMovingAverage(window time.Duration, rate float64) *MovingAverage {
	need := int(window.Seconds() * rate)
	if need < 1 {
		need = 1
	}
	return &MovingAverage{need: need}
}

// Push feeds one reading into the accumulator. When the window fills it
// returns the averaged reading (carrying the timestamp and unit of the
// most recent sample) and true, then resets for the next window.
func (m *MovingAverage) Push(r Reading) (Reading, bool) {
	if r.Intensity == nil {
		return Reading{}, false
	}
	m.sum += *r.Intensity
	m.count++
	if m.count < m.need {
		return Reading{}, false
	}
	avg := m.sum / float64(m.count)
	m.sum = 0
	m.count = 0
	out := r
	out.Intensity = Float(avg)
	out.Exact = false
	return out, true
}

// ChangeFilter passes a reading through only when its formatted value
// differs from the previously emitted one. The first in-range reading is
// always emitted. Out-of-range readings are skipped.
type ChangeFilter struct {
	last string
	seen bool
}

// Push feeds one reading into the filter and reports whether it should
// be emitted.
func (f *ChangeFilter) Push(r Reading) (Reading, bool) {
	if r.Intensity == nil {
		return Reading{}, false
	}
	formatted := r.FormatIntensity()
	if f.seen && formatted == f.last {
		return Reading{}, false
	}
	f.seen = true
	f.last = formatted
	return r, true
}
