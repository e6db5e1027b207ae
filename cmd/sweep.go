// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lumenlab/goniolux/pkg/gm1020"
	"github.com/lumenlab/goniolux/pkg/gonio"
	"github.com/lumenlab/goniolux/pkg/maestro"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

var (
	sweepServoPort string
	sweepFile      string
	sweepOverrides []string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <config>...",
	Short: "Capture a polar intensity sweep",
	Long: `Step the pan servo across its range, averaging live luxmeter readings
at each position, and record the raw sweep as TSV.

Calibration comes from one or more YAML config files, layered in order.
It is highly recommended to make several small configuration files, one
for each component: servo, luxmeter, flashlight, and equipment layout.

Example:
  goniolux sweep servo.s3151.yaml lux.gm1020.yaml layout.p60.yaml --file p60.tsv

The raw file embeds the calibration values needed for reduction, so it
can be reduced later without the original config files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runSweep(cmd, args)
		if errors.Is(err, context.Canceled) {
			// ^C mid-sweep; the rows written so far are still usable
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepServoPort, "servo-port", "", "Serial port of the Maestro servo controller (required)")
	sweepCmd.Flags().StringVar(&sweepFile, "file", "", "Path to save TSV data to (default: stdout)")
	sweepCmd.Flags().StringSliceVar(&sweepOverrides, "set", nil, "Override config settings, e.g. --set scale:0.5,samples:20")
	sweepCmd.MarkFlagRequired("servo-port")
}

// applyOverrides folds --set key:value pairs into the calibration by
// round-tripping them through the YAML decoder, so overrides accept
// exactly the keys the config files do.
func applyOverrides(cal *gonio.Calibration, overrides []string) error {
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, ":")
		if !ok {
			return fmt.Errorf("--set: want key:value, got %q", kv)
		}
		doc := fmt.Sprintf("%s: %s", strings.TrimSpace(key), strings.TrimSpace(value))
		if err := yaml.Unmarshal([]byte(doc), cal); err != nil {
			return fmt.Errorf("--set %q: %w", kv, err)
		}
	}
	return nil
}

// waitSettled waits for the servo to finish traveling, then for the
// configured settle time on top of that.
func waitSettled(ctx context.Context, ctrl *maestro.Controller, settle time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		moving, err := ctrl.Moving()
		if err != nil {
			return err
		}
		if !moving {
			break
		}
		time.Sleep(settle)
	}
	time.Sleep(settle)
	return nil
}

// samplePosition averages the next n live readings. Frames that piled
// up during travel and settling are flushed first so every averaged
// reading was taken at the current position.
func samplePosition(ctx context.Context, live *gm1020.LiveStream, n int) (time.Time, float64, error) {
	if err := live.Drain(); err != nil {
		return time.Time{}, 0, err
	}

	var first time.Time
	values := make([]float64, 0, n)
	for len(values) < n {
		r, err := live.Next(ctx)
		if err != nil {
			return time.Time{}, 0, err
		}
		if !r.Valid() {
			continue
		}
		if len(values) == 0 {
			first = r.Time
		}
		values = append(values, *r.Intensity)
	}
	return first, stat.Mean(values, nil), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cal, err := gonio.LoadCalibration(args...)
	if err != nil {
		return err
	}
	if err := applyOverrides(&cal, sweepOverrides); err != nil {
		return err
	}
	if err := cal.Validate(); err != nil {
		return err
	}
	if cal.Samples < 1 {
		return fmt.Errorf("calibration: samples must be at least 1, got %d", cal.Samples)
	}
	if cal.Resolution <= 0 {
		return fmt.Errorf("calibration: resolution must be positive, got %g", cal.Resolution)
	}

	rng := maestro.Range{Min: cal.PanMin, Max: cal.PanMax, Degrees: cal.PanRange}
	step := rng.StepSize(cal.Resolution)
	if step < 1 {
		return fmt.Errorf("calibration: resolution %g degrees is below one servo pulse", cal.Resolution)
	}
	settle := time.Duration(cal.Settle * float64(time.Second))

	servoConn, err := OpenSerialConnection(sweepServoPort, maestro.BaudRate)
	if err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	defer servoConn.Close()

	meterConn, _, err := OpenConnection()
	if err != nil {
		return fmt.Errorf("meter: %w", err)
	}
	defer meterConn.Close()

	ctrl, err := maestro.NewController(servoConn, cal.Velocity, cal.Acceleration)
	if err != nil {
		return err
	}

	out, err := openOutput(sweepFile)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Move to the start of the sweep before opening the live stream, so
	// the travel does not fill the buffer with stale readings.
	if err := ctrl.SetPan(int(cal.PanMin)); err != nil {
		return err
	}
	if err := waitSettled(ctx, ctrl, settle); err != nil {
		return err
	}

	session := gm1020.NewSession(meterConn)
	live, err := session.Live()
	if err != nil {
		return err
	}
	defer live.Close()

	if err := gonio.WriteRawHeader(out, cal); err != nil {
		return err
	}

	for pulse := int(cal.PanMin); pulse < int(cal.PanMax); pulse += step {
		if err := ctrl.SetPan(pulse); err != nil {
			return err
		}
		if err := waitSettled(ctx, ctrl, settle); err != nil {
			return err
		}

		ts, lux, err := samplePosition(ctx, live, cal.Samples)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("meter went silent mid-sweep at pulse %d", pulse)
		}
		if err != nil {
			return err
		}

		sample := gonio.SweepSample{Time: ts, Pulse: float64(pulse), Lux: lux}
		if err := gonio.WriteRawSample(out, sample); err != nil {
			return err
		}
	}
	return nil
}
