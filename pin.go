// Package drivers holds the interfaces shared by the device drivers in this
// repository. Each driver lives in its own package and only talks to hardware
// through these interfaces, so the same driver runs under TinyGo on a
// microcontroller and under Go on a Linux host.
package drivers

// PinMode is the direction of a digital pin.
type PinMode uint8

const (
	PinOutput PinMode = iota
	PinInput
)

func (m PinMode) String() string {
	switch m {
	case PinOutput:
		return "output"
	case PinInput:
		return "input"
	}
	return "unknown"
}

// Pin is a single digital GPIO pin. Drivers that bit-bang a protocol take one
// Pin per signal line. Implementations are owned by the caller.
type Pin interface {
	// Configure switches the pin direction.
	Configure(mode PinMode)
	// Set drives the pin high or low. Only meaningful in PinOutput mode.
	Set(high bool)
	// Get reads the current level of the pin.
	Get() bool
}
