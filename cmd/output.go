// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Lumen Lab

package cmd

import (
	"io"
	"os"
)

// DefaultTimeFormat is the timestamp layout for TSV output.
const DefaultTimeFormat = "2006-01-02 15:04:05.000000"

// nopWriteCloser keeps stdout from being closed when it stands in for a file
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// openOutput returns the TSV destination: the given file, or stdout when
// the path is empty or "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
