package ds1302

// Command bytes for the clock registers. Bit 0 selects read (1) or write (0),
// so the read command for each register is its write command plus one.
const (
	RegSecond         = 0x80 // Seconds, bit 7 is the clock halt flag
	RegMinute         = 0x82
	RegHour           = 0x84 // Hours, bit 7 selects 12-hour mode
	RegDay            = 0x86 // Day of the month
	RegMonth          = 0x88
	RegWeekday        = 0x8A
	RegYear           = 0x8C
	RegWriteProtect   = 0x8E // Write protect, bit 7 blocks writes to all other registers
	RegTrickleCharger = 0x90 // Trickle charger control
	RegRAM            = 0xC0 // First scratch RAM byte
)

const (
	readBit   = 0x01
	haltBit   = 0x80
	wpEnabled = 0x80
	mode12h   = 0x80

	// RAMSize is the number of scratch RAM bytes.
	RAMSize = 31
)

// Trickle charger settings. The upper nibble must be 0b1010 to enable the
// charger, the lower nibble picks the number of diodes and the resistor.
const (
	TrickleDisabled   = 0x5C
	Trickle1Diode2k   = 0xA5
	Trickle1Diode4k   = 0xA6
	Trickle1Diode8k   = 0xA7
	Trickle2Diodes2k  = 0xA9
	Trickle2Diodes4k  = 0xAA
	Trickle2Diodes8k  = 0xAB
	trickleEnableMask = 0xF0
	trickleEnabled    = 0xA0
)

// TrickleEnabled reports whether a trickle charger register value turns the
// charger on.
func TrickleEnabled(v byte) bool {
	return v&trickleEnableMask == trickleEnabled && v&0x0C != 0 && v&0x03 != 0
}
