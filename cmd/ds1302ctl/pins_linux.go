package main

import (
	"github.com/ajanata/drivers"
	"github.com/ajanata/drivers/gpioline"
)

const consumer = "ds1302ctl"

type linePins struct {
	clk, dio, ce *gpioline.Pin
}

func openPins(chip string, clk, dio, ce int) (pinSet, error) {
	p := &linePins{}
	var err error
	if p.clk, err = gpioline.Request(chip, clk, consumer); err != nil {
		return nil, err
	}
	if p.dio, err = gpioline.Request(chip, dio, consumer); err != nil {
		p.Close()
		return nil, err
	}
	if p.ce, err = gpioline.Request(chip, ce, consumer); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *linePins) Pins() (clk, dio, ce drivers.Pin) {
	return p.clk, p.dio, p.ce
}

func (p *linePins) Err() error {
	for _, l := range []*gpioline.Pin{p.clk, p.dio, p.ce} {
		if err := l.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (p *linePins) Close() {
	for _, l := range []*gpioline.Pin{p.clk, p.dio, p.ce} {
		if l != nil {
			l.Close()
		}
	}
}
