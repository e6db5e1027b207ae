// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package ut382

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
)

// Conn is the byte source the synchronizer reads from. A Read that
// returns zero bytes after the configured timeout signals inter-byte
// silence; it is never treated as a fault by itself.
type Conn interface {
	io.Reader
	SetReadTimeout(time.Duration) error
}

// Synchronizer recovers 33-byte frames from the meter's continuous byte
// stream.
//
// It starts in resync mode: bytes are accumulated into bursts delimited
// by inter-byte silence, and the first 33-byte burst that validates is
// accepted. After that it switches to locked mode and performs fixed-size
// reads, which is considerably cheaper than per-byte accumulation. Any
// validation failure or short read drops it straight back to resync mode.
type Synchronizer struct {
	conn   Conn
	locked bool

	burstTimeout time.Duration
	frameTimeout time.Duration
}

// NewSynchronizer creates a synchronizer in resync mode with the default
// timeouts.
func NewSynchronizer(conn Conn) *Synchronizer {
	return &Synchronizer{
		conn:         conn,
		burstTimeout: DefaultBurstTimeout,
		frameTimeout: DefaultFrameTimeout,
	}
}

// Locked reports whether framing has been empirically confirmed.
func (s *Synchronizer) Locked() bool {
	return s.locked
}

// Next returns the next validated frame.
//
// In locked mode a structurally invalid frame is returned together with
// its *FramingError so callers can inspect it; the synchronizer has
// already dropped back to resync mode by then. During resynchronization
// invalid bursts are silently discarded.
func (s *Synchronizer) Next(ctx context.Context) (Frame, error) {
	if !s.locked {
		return s.resync(ctx)
	}

	frame, err := s.readLocked(ctx)
	if err != nil {
		return nil, err
	}
	if ferr := frame.Validate(); ferr != nil {
		s.locked = false
		return frame, ferr
	}
	return frame, nil
}

// resync scans bursts until one validates as a frame.
func (s *Synchronizer) resync(ctx context.Context) (Frame, error) {
	if err := s.conn.SetReadTimeout(s.burstTimeout); err != nil {
		return nil, err
	}

	burst := make([]byte, 0, FrameSize*2)
	buf := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.conn.Read(buf)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			burst = append(burst, buf[0])
			continue
		}

		// silence closes the current burst
		if len(burst) == 0 {
			continue
		}
		if len(burst) == FrameSize {
			frame := Frame(append([]byte(nil), burst...))
			if frame.Validate() == nil {
				s.locked = true
				if err := s.conn.SetReadTimeout(s.frameTimeout); err != nil {
					return nil, err
				}
				return frame, nil
			}
		}
		burst = burst[:0]
	}
}

// readLocked accumulates exactly one frame's worth of bytes. A zero-byte
// read before the frame completes counts as a short read and forces
// resynchronization.
func (s *Synchronizer) readLocked(ctx context.Context) (Frame, error) {
	buf := make([]byte, FrameSize)
	total := 0
	for total < FrameSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.conn.Read(buf[total:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			s.locked = false
			return Frame(buf[:total]), nil
		}
		total += n
	}
	return Frame(buf), nil
}

// Monitor is the live reading stream: frames from the synchronizer,
// decoded and composed, with menu frames skipped and structurally
// invalid frames dropped.
type Monitor struct {
	sync          *Synchronizer
	stats         *Statistics
	warnedBattery bool
}

// NewMonitor creates a live monitor over the given connection.
func NewMonitor(conn Conn) *Monitor {
	return &Monitor{
		sync:  NewSynchronizer(conn),
		stats: NewStatistics(),
	}
}

// Statistics returns the monitor's running frame statistics.
func (m *Monitor) Statistics() *Statistics {
	return m.stats
}

// Synchronized reports whether the underlying synchronizer is locked.
func (m *Monitor) Synchronized() bool {
	return m.sync.Locked()
}

// Next blocks until the next usable reading. Framing errors trigger
// resynchronization and are never surfaced as readings; cancellation of
// ctx ends the stream.
func (m *Monitor) Next(ctx context.Context) (meter.Reading, error) {
	for {
		frame, err := m.sync.Next(ctx)

		var ferr *FramingError
		if errors.As(err, &ferr) {
			m.stats.RecordFrame(ferr)
			continue
		}
		if err != nil {
			return meter.Reading{}, err
		}
		m.stats.RecordFrame(nil)

		fields := DecodeFields(frame.DataBytes())
		if InMenu(fields) {
			m.stats.RecordMenu()
			continue
		}
		if LowBattery(fields) && !m.warnedBattery {
			log.Printf("warning: meter battery low")
			m.warnedBattery = true
		}

		r := ComposeReading(fields, time.Now())
		m.stats.RecordReading(r)
		return r, nil
	}
}
