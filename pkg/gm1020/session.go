// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

package gm1020

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/lumenlab/goniolux/pkg/meter"
)

// Conn is the byte channel a session talks over. A Read that returns
// zero bytes after the configured timeout means the meter sent nothing.
type Conn interface {
	io.Reader
	io.Writer
	SetReadTimeout(time.Duration) error
}

// Session owns the exclusive command/response channel to one meter.
// It is not safe for concurrent use; the protocol has no multiplexing.
type Session struct {
	conn Conn
}

// NewSession creates a session over the given connection.
func NewSession(conn Conn) *Session {
	return &Session{conn: conn}
}

// Send writes one command frame to the meter.
func (s *Session) Send(f Frame) error {
	if _, err := s.conn.Write(f[:]); err != nil {
		return fmt.Errorf("send 0x%02X: %w", f[0], err)
	}
	return nil
}

// listen reads up to n reply bytes, stopping early when the read timeout
// expires with nothing received. A short or empty result is not an error
// here; callers decide what an incomplete reply means.
func (s *Session) listen(n int) ([]byte, error) {
	buf := make([]byte, n)
	total := 0
	for total < n {
		got, err := s.conn.Read(buf[total:])
		if err != nil {
			return buf[:total], err
		}
		if got == 0 {
			break
		}
		total += got
	}
	return buf[:total], nil
}

// SendAndConfirm sends a frame and verifies the meter echoes it back
// byte-for-byte. A mismatch or short echo reads as false, not as an
// error: the caller decides whether to retry.
func (s *Session) SendAndConfirm(f Frame) (bool, error) {
	if err := s.Send(f); err != nil {
		return false, err
	}
	echo, err := s.listen(FrameSize)
	if err != nil {
		return false, err
	}
	return bytes.Equal(echo, f[:]), nil
}

// Settings queries the meter's current configuration.
func (s *Session) Settings() (Settings, error) {
	if err := s.conn.SetReadTimeout(DefaultReadTimeout); err != nil {
		return Settings{}, err
	}
	if err := s.Send(NewStatusQuery()); err != nil {
		return Settings{}, err
	}
	reply, err := s.listen(FrameSize)
	if err != nil {
		return Settings{}, err
	}
	return DecodeStatusReply(reply)
}

// Configure pushes new settings to the meter and reports whether the
// meter confirmed them.
func (s *Session) Configure(set Settings) (bool, error) {
	f, err := NewConfigure(set)
	if err != nil {
		return false, err
	}
	if err := s.conn.SetReadTimeout(DefaultReadTimeout); err != nil {
		return false, err
	}
	return s.SendAndConfirm(f)
}

// ClearMemory wipes the meter's stored samples and reports whether the
// meter confirmed the wipe.
func (s *Session) ClearMemory() (bool, error) {
	if err := s.conn.SetReadTimeout(DefaultReadTimeout); err != nil {
		return false, err
	}
	return s.SendAndConfirm(NewClearMemory())
}

// Live starts the live sample stream. The returned stream must be closed
// by the caller; Close sends the live-stop command exactly once, on every
// exit path, before the channel can be reused for other commands.
func (s *Session) Live() (*LiveStream, error) {
	if err := s.conn.SetReadTimeout(LiveReadTimeout); err != nil {
		return nil, err
	}
	if err := s.Send(NewLiveStart()); err != nil {
		return nil, err
	}
	return &LiveStream{session: s}, nil
}

// LiveStream is the live reading stream of a session.
type LiveStream struct {
	session  *Session
	stopOnce sync.Once
	stopErr  error
}

// Next blocks until the next live reading. Frames with unexpected
// sentinel bytes are logged and still decoded best-effort. An empty read
// (meter silent past the timeout) is reported as io.EOF.
func (l *LiveStream) Next(ctx context.Context) (meter.Reading, error) {
	for {
		if err := ctx.Err(); err != nil {
			return meter.Reading{}, err
		}
		reply, err := l.session.listen(FrameSize)
		if err != nil {
			return meter.Reading{}, err
		}
		if len(reply) == 0 {
			return meter.Reading{}, io.EOF
		}
		if len(reply) < FrameSize {
			// partial frame at timeout, drop it
			continue
		}

		r, err := DecodeLiveFrame(reply, time.Now())
		if mismatch, ok := err.(*MismatchError); ok {
			log.Printf("you have discovered something new, please report this: %v", mismatch)
			return r, nil
		}
		if err != nil {
			return meter.Reading{}, err
		}
		return r, nil
	}
}

// Drain discards live frames that have accumulated in the OS buffer,
// returning once the channel goes quiet. Call it after the sensor or
// the fixture has been moving, so stale readings cannot leak into the
// next measurement.
func (l *LiveStream) Drain() error {
	if err := l.session.conn.SetReadTimeout(drainTimeout); err != nil {
		return err
	}
	for {
		reply, err := l.session.listen(FrameSize)
		if err != nil {
			return err
		}
		if len(reply) == 0 {
			break
		}
	}
	return l.session.conn.SetReadTimeout(LiveReadTimeout)
}

// Close stops the live stream by sending live-stop. Safe to call more
// than once; only the first call talks to the meter.
func (l *LiveStream) Close() error {
	l.stopOnce.Do(func() {
		l.stopErr = l.session.Send(NewLiveStop())
		if err := l.session.conn.SetReadTimeout(DefaultReadTimeout); err != nil && l.stopErr == nil {
			l.stopErr = err
		}
	})
	return l.stopErr
}

// DumpMemory requests the meter's stored samples and returns a stream of
// decoded readings.
func (s *Session) DumpMemory() (*Dump, error) {
	if err := s.conn.SetReadTimeout(DefaultReadTimeout); err != nil {
		return nil, err
	}
	if err := s.Send(NewDumpCommand()); err != nil {
		return nil, err
	}
	return &Dump{session: s}, nil
}

// Dump is a sequential memory-dump stream. Samples carry no timestamps;
// the meter only logs values, and times are inferred by the caller from
// the logging interval.
type Dump struct {
	session *Session
	done    bool
}

// Next returns the next stored sample, or io.EOF when the dump ends:
// either the end-of-data pair 0xFF 0xFF or meter silence.
func (d *Dump) Next() (meter.Reading, error) {
	if d.done {
		return meter.Reading{}, io.EOF
	}
	pair, err := d.session.listen(2)
	if err != nil {
		return meter.Reading{}, err
	}
	if len(pair) < 2 || (pair[0] == dumpSentinel && pair[1] == dumpSentinel) {
		d.done = true
		return meter.Reading{}, io.EOF
	}
	return DecodeDumpPair(pair[0], pair[1]), nil
}
