//go:build !linux
// +build !linux

package main

import "errors"

func openPins(chip string, clk, dio, ce int) (pinSet, error) {
	return nil, errors.New("GPIO character devices are only available on Linux")
}
