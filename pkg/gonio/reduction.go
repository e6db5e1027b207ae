// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

// Package gonio reduces a polar sweep of illuminance measurements into a
// calibrated luminous-intensity profile: it finds the symmetry center of
// the sweep, folds it into a one-sided profile, and integrates total
// luminous flux over solid angle.
package gonio

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// SweepSample is one measurement of a sweep: the raw actuator position,
// the derived beam angle, and the measured illuminance. Sweep order is
// significant and assumed to be a monotonic angular traversal.
type SweepSample struct {
	Time  time.Time
	Pulse float64 // raw actuator unit
	Angle float64 // degrees
	Lux   float64
}

// ProfilePoint is one entry of a reduced, one-sided intensity profile.
type ProfilePoint struct {
	Angle   float64 // degrees from the optical axis, >= 0
	Candela float64
	Throw   float64 // meters to 0.25 lux
}

// Candela converts an illuminance measurement to luminous intensity.
// The photometric distance is corrected for the sensor's lateral offset
// from the rotation axis: d = distance/100 - cos(angle)*offset/100, with
// distance and offset in centimeters.
func Candela(lux, angleDeg, scale, distanceCm, offsetCm float64) float64 {
	meters := distanceCm/100.0 - math.Cos(angleDeg*math.Pi/180.0)*offsetCm/100.0
	return lux * scale * meters * meters
}

// symmetryError scores a candidate center index: the mean of squared
// differences between candela values at equal offsets on either side,
// over as many pairs as the shorter side allows. Indices with no pairs
// (the ends of the sweep) score +Inf so they are never chosen.
func symmetryError(candela []float64, mid int) float64 {
	left := mid
	right := len(candela) - 1 - mid
	pairs := left
	if right < left {
		pairs = right
	}
	if pairs <= 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for k := 0; k < pairs; k++ {
		d := candela[mid-1-k] - candela[mid+1+k]
		sum += d * d
	}
	return sum / float64(pairs)
}

// Center finds the sweep's symmetry center: starting from the brightest
// sample, it greedily steps toward strictly lower symmetry error and
// stops at the first local minimum.
func Center(candela []float64) int {
	mid := floats.MaxIdx(candela)
	err := symmetryError(candela, mid)
	for {
		if mid > 0 {
			if left := symmetryError(candela, mid-1); left < err {
				err = left
				mid--
				continue
			}
		}
		if mid < len(candela)-1 {
			if right := symmetryError(candela, mid+1); right < err {
				err = right
				mid++
				continue
			}
		}
		return mid
	}
}

// Fold collapses the signed sweep into a one-sided profile around the
// center index. Entry 0 is the center sample at angle zero; entry k
// averages the candela of the samples k steps to either side, using
// whichever side exists when the sweep is longer on one side. The angle
// of each entry is the absolute angular distance from the center sample.
func Fold(angles, candela []float64, mid int) ([]ProfilePoint, error) {
	if len(angles) != len(candela) {
		return nil, fmt.Errorf("fold: %d angles vs %d candela values", len(angles), len(candela))
	}
	if mid < 0 || mid >= len(candela) {
		return nil, fmt.Errorf("fold: center %d out of range", mid)
	}

	profile := []ProfilePoint{{Angle: 0, Candela: candela[mid]}}
	axis := angles[mid]

	for k := 1; ; k++ {
		left := mid - k
		right := mid + k
		if left < 0 && right >= len(candela) {
			break
		}
		total := 0.0
		count := 0
		angle := 0.0
		if left >= 0 {
			total += candela[left]
			count++
			angle = math.Abs(angles[left] - axis)
		}
		if right < len(candela) {
			total += candela[right]
			count++
			angle = math.Abs(angles[right] - axis)
		}
		profile = append(profile, ProfilePoint{
			Angle:   angle,
			Candela: total / float64(count),
		})
	}
	return profile, nil
}

// Throw computes the distance at which the beam falls to 0.25 lux.
func Throw(candela float64) float64 {
	return math.Sqrt(4 * candela)
}

// Reduce runs the full pipeline on an ordered sweep: candela conversion,
// center finding, folding, and throw. Requires at least three samples.
func Reduce(samples []SweepSample, cal Calibration) ([]ProfilePoint, error) {
	if len(samples) < 3 {
		return nil, fmt.Errorf("reduce: need at least 3 samples, got %d", len(samples))
	}

	angles := make([]float64, len(samples))
	candela := make([]float64, len(samples))
	for i, s := range samples {
		angles[i] = s.Angle
		candela[i] = Candela(s.Lux, s.Angle, cal.Scale, cal.Distance, cal.Offset)
	}

	profile, err := Fold(angles, candela, Center(candela))
	if err != nil {
		return nil, err
	}
	for i := range profile {
		profile[i].Throw = Throw(profile[i].Candela)
	}
	return profile, nil
}

// capArea is the area of a unit-sphere spherical cap of the given
// half-angle: 2*pi*(1-cos(angle)).
func capArea(angleDeg float64) float64 {
	return 2 * math.Pi * (1 - math.Cos(angleDeg*math.Pi/180.0))
}

// IntegrateLumens computes total luminous flux from a folded profile by
// midpoint-rule quadrature over solid angle. The profile must be sorted
// by increasing angle starting at zero; uneven angle spacing is fine.
// The last sample marks the edge of the measured range and is not
// separately integrated.
func IntegrateLumens(profile []ProfilePoint) (float64, error) {
	if len(profile) < 2 {
		return 0, fmt.Errorf("integrate: need at least 2 profile points, got %d", len(profile))
	}

	lumens := profile[0].Candela * capArea(profile[1].Angle/2)
	for i := 1; i < len(profile)-1; i++ {
		inner := (profile[i].Angle + profile[i-1].Angle) / 2
		outer := (profile[i].Angle + profile[i+1].Angle) / 2
		lumens += profile[i].Candela * (capArea(outer) - capArea(inner))
	}
	return lumens, nil
}
