// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package meter

import "testing"

func TestFormatIntensity(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		want    string
	}{
		{
			name:    "exact integer",
			reading: Reading{Intensity: Float(500), Exact: true, Decimals: 2},
			want:    "500",
		},
		{
			name:    "two decimals",
			reading: Reading{Intensity: Float(12.3), Decimals: 2},
			want:    "12.30",
		},
		{
			name:    "one decimal",
			reading: Reading{Intensity: Float(12.3), Decimals: 1},
			want:    "12.3",
		},
		{
			name:    "out of range",
			reading: Reading{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reading.FormatIntensity(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatTemperature(t *testing.T) {
	temp := 23.1
	r := Reading{Temperature: &temp}
	if got := r.FormatTemperature(); got != "23.1" {
		t.Errorf("expected 23.1, got %q", got)
	}
	if got := (Reading{}).FormatTemperature(); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
