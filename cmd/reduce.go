// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"fmt"
	"os"

	"github.com/lumenlab/goniolux/pkg/gonio"
	"github.com/lumenlab/goniolux/pkg/maestro"
	"github.com/spf13/cobra"
)

var reduceOverrides []string

var reduceCmd = &cobra.Command{
	Use:   "reduce <raw.tsv> <profile.tsv>",
	Short: "Reduce a raw sweep into an intensity profile",
	Long: `Reduce a raw sweep file into a calibrated intensity profile.

Converts each lux measurement to candela, finds the symmetry center of
the sweep, folds it into a one-sided profile with throw distances, and
prints the integrated total luminous flux.

The calibration embedded in the raw file's header is used; --set
overrides individual values, which is useful when the luxmeter's scale
factor was calibrated after the sweep was captured.`,
	Args: cobra.ExactArgs(2),
	RunE: runReduce,
}

func init() {
	rootCmd.AddCommand(reduceCmd)
	reduceCmd.Flags().StringSliceVar(&reduceOverrides, "set", nil, "Override embedded calibration, e.g. --set scale:0.5")
}

func runReduce(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	cal, samples, err := gonio.LoadRaw(in)
	if err != nil {
		return err
	}
	if err := applyOverrides(&cal, reduceOverrides); err != nil {
		return err
	}
	if err := cal.Validate(); err != nil {
		return err
	}

	// Raw files record servo pulses; angles come from the calibration.
	rng := maestro.Range{Min: cal.PanMin, Max: cal.PanMax, Degrees: cal.PanRange}
	for i := range samples {
		samples[i].Angle = rng.ToDegrees(samples[i].Pulse)
	}

	profile, err := gonio.Reduce(samples, cal)
	if err != nil {
		return err
	}
	lumens, err := gonio.IntegrateLumens(profile)
	if err != nil {
		return err
	}
	fmt.Println("lumens:", lumens)

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer out.Close()
	return gonio.WriteProfile(out, profile)
}
