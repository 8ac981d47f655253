//go:build tinygo
// +build tinygo

package drivers

import "machine"

type machinePin struct {
	machine.Pin
}

// MachinePin adapts a TinyGo machine.Pin to the Pin interface.
func MachinePin(p machine.Pin) Pin {
	return machinePin{p}
}

func (p machinePin) Configure(mode PinMode) {
	switch mode {
	case PinInput:
		p.Pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	default:
		p.Pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
}
