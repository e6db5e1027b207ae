// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gm1020

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// fakeMeter scripts the meter side of a session: writes are recorded,
// reads replay the queued replies. An empty reply is a timed-out read.
type fakeMeter struct {
	written []byte
	replies [][]byte
}

func (f *fakeMeter) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeMeter) Read(p []byte) (int, error) {
	if len(f.replies) == 0 {
		return 0, nil
	}
	r := f.replies[0]
	if len(r) == 0 {
		f.replies = f.replies[1:]
		return 0, nil
	}
	n := copy(p, r)
	if n == len(r) {
		f.replies = f.replies[1:]
	} else {
		f.replies[0] = r[n:]
	}
	return n, nil
}

func (f *fakeMeter) SetReadTimeout(time.Duration) error { return nil }

func (f *fakeMeter) queue(replies ...[]byte) {
	f.replies = append(f.replies, replies...)
}

// ============================================================
// Session Tests
// ============================================================

func TestSession_Settings(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue([]byte{0x00, 0x05, 0x01, 10, 0x00, 0x00, 0x3C, 0x00})

	set, err := NewSession(meter).Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}

	query := NewStatusQuery()
	if !bytes.Equal(meter.written, query[:]) {
		t.Errorf("expected a status query on the wire, got % 02X", meter.written)
	}
	if set.StoredSamples != 5 || !set.AutoShutdown || set.ShutdownTimer != 10 {
		t.Errorf("unexpected settings: %+v", set)
	}
}

func TestSession_ConfirmEcho(t *testing.T) {
	f := NewClearMemory()

	tests := []struct {
		name string
		echo []byte
		want bool
	}{
		{name: "exact echo", echo: f[:], want: true},
		{name: "corrupted echo", echo: append([]byte{0x00}, f[1:]...), want: false},
		{name: "silence", echo: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meter := &fakeMeter{}
			if tt.echo != nil {
				meter.queue(tt.echo)
			}

			ok, err := NewSession(meter).ClearMemory()
			if err != nil {
				t.Fatalf("ClearMemory: %v", err)
			}
			if ok != tt.want {
				t.Errorf("expected confirmation %v, got %v", tt.want, ok)
			}
		})
	}
}

// ============================================================
// Live Stream Tests
// ============================================================

func TestLiveStream(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue(
		liveFrame(0x00, 0x0A, 0x00, 0xFA),
		liveFrame(0x00, 0x14, 0x00, 0xFA),
	)

	session := NewSession(meter)
	live, err := session.Live()
	if err != nil {
		t.Fatalf("Live: %v", err)
	}

	start := NewLiveStart()
	if !bytes.Equal(meter.written, start[:]) {
		t.Errorf("expected a live-start command, got % 02X", meter.written)
	}

	r1, err := live.Next(context.Background())
	if err != nil {
		t.Fatalf("first reading: %v", err)
	}
	if *r1.Intensity != 1.0 || *r1.Temperature != 25.0 {
		t.Errorf("unexpected first reading: %+v", r1)
	}

	if _, err := live.Next(context.Background()); err != nil {
		t.Fatalf("second reading: %v", err)
	}

	// silence past the timeout ends the stream
	if _, err := live.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on silence, got %v", err)
	}

	if err := live.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	stop := NewLiveStop()
	if !bytes.HasSuffix(meter.written, stop[:]) {
		t.Errorf("expected a live-stop command, wire ends % 02X", meter.written)
	}

	// Close is idempotent
	if err := live.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if want := len(start) + len(stop); len(meter.written) != want {
		t.Errorf("second Close should not touch the wire: %d bytes written, want %d", len(meter.written), want)
	}
}

func TestLiveStream_DrainFlushesBacklog(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue(
		// frames accumulated while the fixture was moving
		liveFrame(0x00, 0x0A, 0x00, 0xFA),
		liveFrame(0x00, 0x14, 0x00, 0xFA),
		[]byte{}, // the channel goes quiet
		// the first frame taken at the current position
		liveFrame(0x01, 0xF4, 0x00, 0xFA),
	)

	live, err := NewSession(meter).Live()
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	if err := live.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	r, err := live.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if *r.Intensity != 50.0 {
		t.Errorf("stale readings leaked past the drain: got %g, want 50", *r.Intensity)
	}
}

func TestLiveStream_DrainOnEmptyBuffer(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue(liveFrame(0x00, 0x0A, 0x00, 0xFA))

	live, err := NewSession(meter).Live()
	if err != nil {
		t.Fatalf("Live: %v", err)
	}

	// the queued frame is the backlog; after it the channel is quiet
	if err := live.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if err := live.Drain(); err != nil {
		t.Fatalf("second Drain: %v", err)
	}
}

func TestLiveStream_DropsPartialFrame(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue(
		[]byte{liveSentinel0, liveSentinel1, 0x00}, // truncated
		[]byte{},                                   // timeout ends the partial read
		liveFrame(0x00, 0x0A, 0x00, 0xFA),
	)

	live, err := NewSession(meter).Live()
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	r, err := live.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if *r.Intensity != 1.0 {
		t.Errorf("expected the complete frame's reading, got %g", *r.Intensity)
	}
}

// ============================================================
// Memory Dump Tests
// ============================================================

func TestDump(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue(
		[]byte{0x00, 0x0A},
		[]byte{0x40, 0x64},
		[]byte{dumpSentinel, dumpSentinel},
	)

	dump, err := NewSession(meter).DumpMemory()
	if err != nil {
		t.Fatalf("DumpMemory: %v", err)
	}

	cmd := NewDumpCommand()
	if !bytes.Equal(meter.written, cmd[:]) {
		t.Errorf("expected a dump command, got % 02X", meter.written)
	}

	var values []float64
	for {
		r, err := dump.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		values = append(values, *r.Intensity)
	}

	if len(values) != 2 || values[0] != 1.0 || values[1] != 100 {
		t.Errorf("unexpected dump values: %v", values)
	}

	// the stream stays ended
	if _, err := dump.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after the sentinel, got %v", err)
	}
}

func TestDump_EndsOnSilence(t *testing.T) {
	meter := &fakeMeter{}
	meter.queue([]byte{0x00, 0x0A})

	dump, err := NewSession(meter).DumpMemory()
	if err != nil {
		t.Fatalf("DumpMemory: %v", err)
	}
	if _, err := dump.Next(); err != nil {
		t.Fatalf("first sample: %v", err)
	}
	if _, err := dump.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on silence, got %v", err)
	}
}
