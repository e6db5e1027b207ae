// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/lumenlab/goniolux/pkg/gm1020"
	"github.com/spf13/cobra"
)

var discoveryCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan serial ports for a connected luxmeter",
	Long: `Probe the OS's likely serial device names for a GM1020 luxmeter.

Each candidate port is opened at 19200 baud and sent a status query; a
port that answers with a full 8-byte reply is reported as a meter. Other
commands use the same scan automatically when --port is not given.

Candidate patterns:
  Linux:   /dev/ttyUSB*
  macOS:   /dev/tty.usbserial-*
  Windows: COM1 through COM9`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
}

// candidatePorts lists the serial device names worth probing on this OS.
func candidatePorts() ([]string, error) {
	switch runtime.GOOS {
	case "windows":
		ports := make([]string, 0, 9)
		for n := 1; n < 10; n++ {
			ports = append(ports, fmt.Sprintf("COM%d", n))
		}
		return ports, nil
	case "linux":
		return filepath.Glob("/dev/ttyUSB*")
	case "darwin":
		return filepath.Glob("/dev/tty.usbserial-*")
	}
	return nil, fmt.Errorf("don't know where serial ports live on %s, use --port", runtime.GOOS)
}

// probeMeter checks whether the port answers a status query like a meter.
// The connection is left open and returned on success.
func probeMeter(port string) (Connection, bool) {
	conn, err := OpenSerialConnection(port, baudRate)
	if err != nil {
		return nil, false
	}
	if err := conn.SetReadTimeout(500 * time.Millisecond); err != nil {
		conn.Close()
		return nil, false
	}

	session := gm1020.NewSession(conn)
	if _, err := session.Settings(); err != nil {
		conn.Close()
		return nil, false
	}
	return conn, true
}

// autodetectMeter scans candidate ports and returns the first that
// answers a status query.
func autodetectMeter() (Connection, string, error) {
	ports, err := candidatePorts()
	if err != nil {
		return nil, "", err
	}
	for _, port := range ports {
		if conn, ok := probeMeter(port); ok {
			return conn, port, nil
		}
	}
	return nil, "", fmt.Errorf("port detection failed, please manually specify --port")
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	ports, err := candidatePorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No candidate serial ports found.")
		return nil
	}

	found := 0
	for _, port := range ports {
		conn, ok := probeMeter(port)
		if !ok {
			fmt.Printf("%-24s no response\n", port)
			continue
		}
		fmt.Printf("%-24s GM1020 luxmeter\n", port)
		conn.Close()
		found++
	}

	fmt.Printf("\nMeters found: %d\n", found)
	return nil
}
