// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gonio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// RawTimeFormat is the timestamp layout used in raw sweep files.
const RawTimeFormat = "2006-01-02 15:04:05.000000"

// essentialKeys are the calibration values a raw sweep file must carry
// so it can be reduced without the original config files.
var essentialKeys = []string{"pan-min", "pan-max", "pan-range", "distance", "offset", "scale"}

func (c Calibration) essential(key string) float64 {
	switch key {
	case "pan-min":
		return c.PanMin
	case "pan-max":
		return c.PanMax
	case "pan-range":
		return c.PanRange
	case "distance":
		return c.Distance
	case "offset":
		return c.Offset
	case "scale":
		return c.Scale
	}
	return 0
}

func (c *Calibration) setEssential(key string, v float64) {
	switch key {
	case "pan-min":
		c.PanMin = v
	case "pan-max":
		c.PanMax = v
	case "pan-range":
		c.PanRange = v
	case "distance":
		c.Distance = v
	case "offset":
		c.Offset = v
	case "scale":
		c.Scale = v
	}
}

// WriteRawHeader writes a raw sweep file's two header lines: the
// comma-separated key: value calibration pairs, then the column names.
func WriteRawHeader(w io.Writer, cal Calibration) error {
	pairs := make([]string, 0, len(essentialKeys))
	for _, k := range essentialKeys {
		pairs = append(pairs, fmt.Sprintf("%s: %g", k, cal.essential(k)))
	}
	if _, err := fmt.Fprintln(w, strings.Join(pairs, ", ")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "time\tpulse\tlux")
	return err
}

// WriteRawSample appends one sweep row.
func WriteRawSample(w io.Writer, s SweepSample) error {
	_, err := fmt.Fprintf(w, "%s\t%g\t%g\n",
		s.Time.Format(RawTimeFormat), s.Pulse, s.Lux)
	return err
}

// LoadRaw parses a raw sweep file: the calibration header line, the
// column header, then one tab-separated sample per line. Sample angles
// are left zero; the caller derives them from the pulse positions.
func LoadRaw(r io.Reader) (Calibration, []SweepSample, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return Calibration{}, nil, fmt.Errorf("raw sweep: missing calibration header")
	}
	var cal Calibration
	for _, pair := range strings.Split(scanner.Text(), ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return Calibration{}, nil, fmt.Errorf("raw sweep: bad header pair %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Calibration{}, nil, fmt.Errorf("raw sweep: bad header value %q: %w", pair, err)
		}
		cal.setEssential(strings.TrimSpace(key), v)
	}

	if !scanner.Scan() {
		return Calibration{}, nil, fmt.Errorf("raw sweep: missing column header")
	}

	var samples []SweepSample
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return Calibration{}, nil, fmt.Errorf("raw sweep: want 3 columns, got %d in %q", len(fields), line)
		}
		ts, err := time.Parse(RawTimeFormat, fields[0])
		if err != nil {
			return Calibration{}, nil, fmt.Errorf("raw sweep: bad timestamp %q: %w", fields[0], err)
		}
		pulse, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Calibration{}, nil, fmt.Errorf("raw sweep: bad pulse %q: %w", fields[1], err)
		}
		lux, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Calibration{}, nil, fmt.Errorf("raw sweep: bad lux %q: %w", fields[2], err)
		}
		samples = append(samples, SweepSample{Time: ts, Pulse: pulse, Lux: lux})
	}
	if err := scanner.Err(); err != nil {
		return Calibration{}, nil, err
	}
	return cal, samples, nil
}

// WriteProfile writes a reduced profile as angle/candela/throw TSV.
func WriteProfile(w io.Writer, profile []ProfilePoint) error {
	if _, err := fmt.Fprintln(w, "angle\tcandela\tthrow"); err != nil {
		return err
	}
	for _, p := range profile {
		if _, err := fmt.Fprintf(w, "%g\t%g\t%g\n", p.Angle, p.Candela, p.Throw); err != nil {
			return err
		}
	}
	return nil
}
