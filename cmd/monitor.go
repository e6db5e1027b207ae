// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
	"github.com/lumenlab/goniolux/pkg/ut382"
	"github.com/spf13/cobra"
)

var (
	monitorFile       string
	monitorDelta      bool
	monitorAverage    int
	monitorDebug      bool
	monitorUseTUI     bool
	monitorTimeFormat string
)

// defaultUT382Port is used when --port is not given; the UT382 streams
// passively, so it cannot be probed for like the GM1020.
const defaultUT382Port = "/dev/ttyUSB0"

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live readings from a UT382 luxmeter",
	Long: `Continuously decode live samples from a Uni-T UT382 luxmeter.

The meter streams its LCD state at 8 samples per second. Output is TSV
(time, light, unit) to stdout or --file. An out-of-range reading is
skipped. Continues until ^C.

Transforms:
  --delta      only output when the displayed value changes
  --average N  average N seconds of samples per output row

To monitor for 12 hours and then stop automatically:
  timeout -s INT 12h goniolux monitor`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorFile, "file", "", "Path to save TSV data to (default: stdout)")
	monitorCmd.Flags().BoolVar(&monitorDelta, "delta", false, "Only output data when the measurement changes")
	monitorCmd.Flags().IntVar(&monitorAverage, "average", 0, "Average together the last N seconds for more stable readings")
	monitorCmd.Flags().BoolVar(&monitorDebug, "debug", false, "Dump decoded frame bytes and fields instead of readings")
	monitorCmd.Flags().BoolVar(&monitorUseTUI, "tui", false, "Show a live dashboard instead of TSV output")
	monitorCmd.Flags().StringVar(&monitorTimeFormat, "timestamp-format", DefaultTimeFormat, "Go layout for output timestamps")
}

func openUT382() (Connection, string, error) {
	if portName == "" && wsURL == "" {
		conn, err := OpenSerialConnection(defaultUT382Port, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", defaultUT382Port, baudRate), nil
	}
	return OpenConnection()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := openUT382()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if monitorDebug {
		return runMonitorDebug(ctx, conn)
	}
	if monitorUseTUI {
		return runMonitorTUI(ctx, conn, connInfo)
	}
	return runMonitorText(ctx, conn)
}

func runMonitorText(ctx context.Context, conn Connection) error {
	out, err := openOutput(monitorFile)
	if err != nil {
		return err
	}
	defer out.Close()

	mon := ut382.NewMonitor(conn)
	var average *meter.MovingAverage
	if monitorAverage > 0 {
		average = meter.NewMovingAverage(time.Duration(monitorAverage)*time.Second, ut382.SampleRate)
	}
	var delta meter.ChangeFilter

	if _, err := fmt.Fprintln(out, "time\tlight\tunit"); err != nil {
		return err
	}

	for {
		r, err := mon.Next(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if !r.Valid() {
			continue
		}

		if average != nil {
			avg, ok := average.Push(r)
			if !ok {
				continue
			}
			r = avg
		}
		if monitorDelta {
			filtered, ok := delta.Push(r)
			if !ok {
				continue
			}
			r = filtered
		}

		_, err = fmt.Fprintf(out, "%s\t%s\t%s\n",
			r.Time.Format(monitorTimeFormat), r.FormatIntensity(), r.Unit)
		if err != nil {
			return err
		}
	}
}

// runMonitorDebug prints every synchronized frame's reconstructed data
// bytes and the fields decoded from them.
func runMonitorDebug(ctx context.Context, conn Connection) error {
	sync := ut382.NewSynchronizer(conn)
	for {
		frame, err := sync.Next(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}

		var ferr *ut382.FramingError
		if errors.As(err, &ferr) {
			fmt.Printf("[INVALID] %v\n", ferr)
		} else if err != nil {
			return err
		}

		data := frame.DataBytes()
		for i, b := range data {
			fmt.Printf("%2d %08b 0x%02X\n", i, b, b)
		}
		fields := ut382.DecodeFields(data)
		fmt.Printf("%+v\n\n", fields)
	}
}
