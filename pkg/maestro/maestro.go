// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Lumen Lab

// Package maestro drives the Pololu Maestro servo controller that pans
// the device under test. The protocol is simple fixed-format compact
// commands: an opcode, a channel, and a value split into two 7-bit bytes.
package maestro

import (
	"fmt"
	"io"
	"math"
	"time"
)

// Serial parameters
const (
	BaudRate           = 9600
	DefaultReadTimeout = 100 * time.Millisecond
)

// Compact protocol opcodes
const (
	opBaudDetect   = 0xAA
	opTarget       = 0x84 // unit is 0.25us PWM width
	opVelocity     = 0x87 // unit is 0.25us / 10ms
	opAcceleration = 0x89 // unit is 0.25us / 10ms / 80ms
	opGetPosition  = 0x90
	opGetState     = 0x93
)

// Servo channels: pan must be on channel 0, tilt on channel 1.
const (
	ChannelPan  = 0
	ChannelTilt = 1
)

// Conn is the byte channel to the controller.
type Conn interface {
	io.Reader
	io.Writer
	SetReadTimeout(time.Duration) error
}

// Controller is a session with one Maestro board.
type Controller struct {
	conn Conn
}

// NewController opens a session: sends baud detection and programs the
// pan channel's velocity and acceleration limits.
func NewController(conn Conn, velocity, acceleration float64) (*Controller, error) {
	if err := conn.SetReadTimeout(DefaultReadTimeout); err != nil {
		return nil, err
	}
	c := &Controller{conn: conn}
	if _, err := conn.Write([]byte{opBaudDetect}); err != nil {
		return nil, err
	}
	if err := c.command(opVelocity, ChannelPan, int(velocity)); err != nil {
		return nil, err
	}
	if err := c.command(opAcceleration, ChannelPan, int(acceleration)); err != nil {
		return nil, err
	}
	return c, nil
}

// command sends one compact-protocol command with a 14-bit value.
func (c *Controller) command(op byte, channel uint8, n int) error {
	frame := []byte{
		op | 0x80,
		channel & 0x07,
		byte(n) & 0x7F,
		byte(n>>7) & 0x7F,
	}
	_, err := c.conn.Write(frame)
	return err
}

// SetPan commands the pan servo to the given pulse position. Pulse is in
// microseconds; the wire unit is quarter microseconds.
func (c *Controller) SetPan(pulse int) error {
	return c.command(opTarget, ChannelPan, pulse*4)
}

// Pan reads the pan servo's current pulse position.
func (c *Controller) Pan() (int, error) {
	return c.position(ChannelPan)
}

func (c *Controller) position(channel uint8) (int, error) {
	if err := c.command(opGetPosition, channel, 0); err != nil {
		return 0, err
	}
	reply := make([]byte, 2)
	total := 0
	for total < 2 {
		n, err := c.conn.Read(reply[total:])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, fmt.Errorf("maestro: no position reply")
		}
		total += n
	}
	return (int(reply[1])<<8 | int(reply[0])) / 4, nil
}

// Moving reports whether any servo is still traveling to its target.
func (c *Controller) Moving() (bool, error) {
	if _, err := c.conn.Write([]byte{opGetState}); err != nil {
		return false, err
	}
	reply := make([]byte, 1)
	n, err := c.conn.Read(reply)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, fmt.Errorf("maestro: no state reply")
	}
	return reply[0] != 0, nil
}

// Range maps raw pulse positions onto sweep angles: the pulse values at
// the two sweep ends and the angular span between them.
type Range struct {
	Min     float64 // pulse at one end of the sweep
	Max     float64 // pulse at the other end
	Degrees float64 // angular span covered between Min and Max
}

// ToDegrees converts a pulse position to degrees from the sweep center.
func (r Range) ToDegrees(pulse float64) float64 {
	center := (r.Min + r.Max) / 2
	perDegree := (r.Max - r.Min) / r.Degrees
	return (pulse - center) / perDegree
}

// StepSize returns the pulse increment corresponding to the given
// angular resolution, rounded to the nearest whole pulse.
func (r Range) StepSize(resolutionDeg float64) int {
	perDegree := (r.Max - r.Min) / r.Degrees
	return int(math.Round(resolutionDeg * perDegree))
}
