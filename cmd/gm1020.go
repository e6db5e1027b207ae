// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lumenlab/goniolux/pkg/gm1020"
	"github.com/spf13/cobra"
)

var (
	gmFile       string
	gmOffset     int
	gmBackdate   bool
	gmTimeFormat string

	gmUnit          []string
	gmShutdown      string
	gmShutdownTimer int
	gmLogging       string
	gmLoggingTimer  int
)

var gm1020Cmd = &cobra.Command{
	Use:   "gm1020",
	Short: "Talk to a Benetech GM1020 luxmeter",
	Long: `Query, configure, and log from a Benetech GM1020 luxmeter.

The GM1020 speaks a command/response protocol: it only sends data when
asked. Without --port or --url the meter is autodetected by probing
candidate serial ports with a status query.`,
}

var gmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the meter's current settings",
	RunE:  runGMStatus,
}

var gmDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the meter's logged samples",
	Long: `Download the samples stored in the meter's EEPROM as TSV.

Stored samples carry no timestamps; the meter logs values only. The time
column is inferred from the configured logging interval: by default it is
seconds since the start of the run, with --backdate it is a wall-clock
timestamp computed by assuming the last sample was taken just now.

Changing the logging timer before downloading corrupts the inferred
times. Download first, reconfigure after.`,
	RunE: runGMDownload,
}

var gmWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Erase the meter's logged samples",
	RunE:  runGMWipe,
}

var gmSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Change the meter's settings",
	Long: `Read-modify-write the meter's configuration.

Only the given flags change; everything else keeps its current value.
The new configuration is printed after the meter confirms it.

Examples:
  goniolux gm1020 setup --unit lux,C
  goniolux gm1020 setup --logging start --logging-timer 60
  goniolux gm1020 setup --shutdown no`,
	RunE: runGMSetup,
}

var gmMonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live readings from the meter",
	Long: `Continuously poll live samples from the meter at 2 samples per second.

Output is TSV (time, lux, C) to stdout or --file. Continues until ^C or
until the meter goes silent.`,
	RunE: runGMMonitor,
}

func init() {
	rootCmd.AddCommand(gm1020Cmd)
	gm1020Cmd.AddCommand(gmStatusCmd, gmDownloadCmd, gmWipeCmd, gmSetupCmd, gmMonitorCmd)

	gmDownloadCmd.Flags().StringVar(&gmFile, "file", "", "Path to save TSV data to (default: stdout)")
	gmDownloadCmd.Flags().IntVar(&gmOffset, "offset", 0, "Shift the inferred start time by N seconds, for combining multiple runs")
	gmDownloadCmd.Flags().BoolVar(&gmBackdate, "backdate", false, "Assume the last sample happened right now and backdate all timestamps")
	gmDownloadCmd.Flags().StringVar(&gmTimeFormat, "timestamp-format", DefaultTimeFormat, "Go layout for backdated timestamps")

	gmMonitorCmd.Flags().StringVar(&gmFile, "file", "", "Path to save TSV data to (default: stdout)")
	gmMonitorCmd.Flags().StringVar(&gmTimeFormat, "timestamp-format", DefaultTimeFormat, "Go layout for output timestamps")

	gmSetupCmd.Flags().StringSliceVar(&gmUnit, "unit", nil, "Display units: any of lux, fc, C, F")
	gmSetupCmd.Flags().StringVar(&gmShutdown, "shutdown", "", "Automatic shutdown: yes or no")
	gmSetupCmd.Flags().IntVar(&gmShutdownTimer, "shutdown-timer", 0, "Minutes before automatic shutdown (1-240)")
	gmSetupCmd.Flags().StringVar(&gmLogging, "logging", "", "Automatic logging: start or stop")
	gmSetupCmd.Flags().IntVar(&gmLoggingTimer, "logging-timer", 0, "Seconds between logged samples (1-3600)")
}

func openGM1020Session() (*gm1020.Session, Connection, error) {
	conn, _, err := OpenConnection()
	if err != nil {
		return nil, nil, err
	}
	return gm1020.NewSession(conn), conn, nil
}

func runGMStatus(cmd *cobra.Command, args []string) error {
	session, conn, err := openGM1020Session()
	if err != nil {
		return err
	}
	defer conn.Close()

	set, err := session.Settings()
	if err != nil {
		return err
	}
	fmt.Print(set)
	return nil
}

func runGMDownload(cmd *cobra.Command, args []string) error {
	session, conn, err := openGM1020Session()
	if err != nil {
		return err
	}
	defer conn.Close()

	// The interval and sample count determine the inferred timestamps.
	set, err := session.Settings()
	if err != nil {
		return err
	}
	interval := time.Duration(set.LoggingInterval) * time.Second
	start := time.Now().Add(-interval * time.Duration(set.StoredSamples))

	out, err := openOutput(gmFile)
	if err != nil {
		return err
	}
	defer out.Close()

	dump, err := session.DumpMemory()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "time\tlux\n")
	for i := 0; ; i++ {
		r, err := dump.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var tick string
		if gmBackdate {
			tick = start.Add(time.Duration(i) * interval).Format(gmTimeFormat)
		} else {
			tick = strconv.Itoa(i*set.LoggingInterval + gmOffset)
		}
		fmt.Fprintf(out, "%s\t%s\n", tick, r.FormatIntensity())
	}
}

func runGMWipe(cmd *cobra.Command, args []string) error {
	session, conn, err := openGM1020Session()
	if err != nil {
		return err
	}
	defer conn.Close()

	ok, err := session.ClearMemory()
	if err != nil {
		return err
	}
	if ok {
		fmt.Println("Wipe successful.")
	} else {
		fmt.Println("Wipe failed?")
	}
	return nil
}

// applySetupFlags folds the given setup flags into the meter's current
// settings. Unset flags leave their fields alone.
func applySetupFlags(set *gm1020.Settings) error {
	for _, u := range gmUnit {
		switch strings.TrimSpace(u) {
		case "lux":
			set.Footcandle = false
		case "fc":
			set.Footcandle = true
		case "C":
			set.Fahrenheit = false
		case "F":
			set.Fahrenheit = true
		default:
			return fmt.Errorf("unknown unit %q: want lux, fc, C or F", u)
		}
	}

	if gmShutdown != "" {
		switch strings.ToLower(gmShutdown) {
		case "yes":
			set.AutoShutdown = true
		case "no":
			set.AutoShutdown = false
		default:
			return fmt.Errorf("--shutdown: want yes or no, got %q", gmShutdown)
		}
	}
	if gmShutdownTimer != 0 {
		set.ShutdownTimer = gmShutdownTimer
	}

	if gmLogging != "" {
		switch strings.ToLower(gmLogging) {
		case "start":
			set.AutoLogging = true
		case "stop":
			set.AutoLogging = false
		default:
			return fmt.Errorf("--logging: want start or stop, got %q", gmLogging)
		}
	}
	if gmLoggingTimer != 0 {
		set.LoggingInterval = gmLoggingTimer
	}
	return nil
}

func runGMSetup(cmd *cobra.Command, args []string) error {
	session, conn, err := openGM1020Session()
	if err != nil {
		return err
	}
	defer conn.Close()

	set, err := session.Settings()
	if err != nil {
		return err
	}
	if err := applySetupFlags(&set); err != nil {
		return err
	}

	ok, err := session.Configure(set)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("meter did not confirm the new settings")
	}
	fmt.Print(set)
	return nil
}

func runGMMonitor(cmd *cobra.Command, args []string) error {
	session, conn, err := openGM1020Session()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := openOutput(gmFile)
	if err != nil {
		return err
	}
	defer out.Close()

	live, err := session.Live()
	if err != nil {
		return err
	}
	defer live.Close()

	fmt.Fprintf(out, "time\tlux\tC\n")
	for {
		r, err := live.Next(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n",
			r.Time.Format(gmTimeFormat), r.FormatIntensity(), r.FormatTemperature())
	}
}
