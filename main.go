// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab
//
// Goniolux - Luxmeter Telemetry & Goniophotometer Toolkit
//
// A CLI tool for reading handheld luxmeters over serial, capturing polar
// intensity sweeps, and reducing them to calibrated photometric profiles.

package main

import (
	"os"

	"github.com/lumenlab/goniolux/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
