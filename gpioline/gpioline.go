//go:build linux
// +build linux

// Package gpioline exposes Linux GPIO character device lines as drivers.Pin,
// so the bit-banged drivers in this repository can run on a single board
// computer.
//
// The Pin interface has no error returns. A Pin remembers the first error the
// kernel reported, which the caller checks with Err after a driver call.
package gpioline

import (
	"github.com/warthog618/go-gpiocdev"

	"github.com/ajanata/drivers"
)

// Pin is a single requested GPIO line.
type Pin struct {
	line  *gpiocdev.Line
	mode  drivers.PinMode
	level bool
	err   error
}

var _ drivers.Pin = &Pin{}

// Request requests a line from a chip, such as "gpiochip0", as an input.
// The consumer label shows up in gpioinfo.
func Request(chip string, offset int, consumer string) (*Pin, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, err
	}
	return &Pin{line: l, mode: drivers.PinInput}, nil
}

// Configure changes the line direction. Nothing is sent to the kernel if the
// line already has that direction. An output line starts at the last level
// passed to Set.
func (p *Pin) Configure(mode drivers.PinMode) {
	if mode == p.mode {
		return
	}
	var err error
	if mode == drivers.PinOutput {
		err = p.line.Reconfigure(gpiocdev.AsOutput(level(p.level)))
	} else {
		err = p.line.Reconfigure(gpiocdev.AsInput)
	}
	if err != nil {
		p.fail(err)
		return
	}
	p.mode = mode
}

func (p *Pin) Set(high bool) {
	p.level = high
	p.fail(p.line.SetValue(level(high)))
}

func (p *Pin) Get() bool {
	v, err := p.line.Value()
	p.fail(err)
	return v != 0
}

// Err returns the first error seen on the line, if any.
func (p *Pin) Err() error {
	return p.err
}

// Close releases the line.
func (p *Pin) Close() error {
	return p.line.Close()
}

func (p *Pin) fail(err error) {
	if err != nil && p.err == nil {
		p.err = err
	}
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
