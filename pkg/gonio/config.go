// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gonio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calibration bundles the servo, layout, and meter calibration a sweep
// needs. It is usually assembled from several small config files, one
// per piece of equipment, with later files overriding earlier ones.
type Calibration struct {
	// Servo sweep range: raw pulse values at the two ends and the
	// angular span between them.
	PanMin   float64 `yaml:"pan-min"`
	PanMax   float64 `yaml:"pan-max"`
	PanRange float64 `yaml:"pan-range"` // degrees

	Resolution   float64 `yaml:"resolution"` // degrees per sweep step
	Velocity     float64 `yaml:"velocity"`
	Acceleration float64 `yaml:"acceleration"`
	Settle       float64 `yaml:"settle"`  // seconds to wait after motion
	Samples      int     `yaml:"samples"` // meter readings averaged per position

	// Layout
	Distance float64 `yaml:"distance"` // sensor distance from axis, cm
	Offset   float64 `yaml:"offset"`   // lateral sensor offset, cm
	Scale    float64 `yaml:"scale"`    // luxmeter calibration factor
}

// LoadCalibration reads and layers the given YAML config files in order.
// Keys absent from a later file keep the value from an earlier one.
func LoadCalibration(paths ...string) (Calibration, error) {
	var cal Calibration
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return Calibration{}, err
		}
		if err := yaml.Unmarshal(data, &cal); err != nil {
			return Calibration{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return cal, nil
}

// Validate checks the fields the reduction and sweep stages depend on.
func (c Calibration) Validate() error {
	if c.Distance <= 0 {
		return fmt.Errorf("calibration: distance must be positive, got %g", c.Distance)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("calibration: scale must be positive, got %g", c.Scale)
	}
	if c.PanRange <= 0 {
		return fmt.Errorf("calibration: pan-range must be positive, got %g", c.PanRange)
	}
	if c.PanMax <= c.PanMin {
		return fmt.Errorf("calibration: pan-max %g must exceed pan-min %g", c.PanMax, c.PanMin)
	}
	return nil
}
