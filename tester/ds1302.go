package tester

import (
	"github.com/ajanata/drivers"
)

// Transaction is a complete register access seen on the 3-wire bus.
type Transaction struct {
	Command uint8
	Data    uint8
}

// Read reports whether the transaction read a register.
func (t Transaction) Read() bool {
	return t.Command&0x01 != 0
}

type phase uint8

const (
	phaseCommand phase = iota
	phaseWrite
	phaseRead
	phaseDone
)

const (
	clockRegs = 9 // seconds to year, write protect, trickle charger
	ramSize   = 31
	wpIndex   = 7
	wpBit     = 0x80
)

// clockMasks holds the bits that exist in each clock register.
var clockMasks = [clockRegs]uint8{0xFF, 0x7F, 0xBF, 0x3F, 0x1F, 0x07, 0xFF, 0x80, 0xFF}

// DS1302 simulates a DS1302 chip by decoding the activity on three fake pins.
// It keeps the clock registers and scratch RAM, honors the write protect
// flag and records every transaction. The clock does not advance on its own.
//
// Protocol violations, such as clocking a bit while the data pin has the
// wrong direction, fail the test.
type DS1302 struct {
	f Failer

	clock [clockRegs]uint8
	ram   [ramSize]uint8
	log   []Transaction

	disconnected bool

	// pin state as driven by the code under test
	clkConfigured, ceConfigured, dioConfigured bool
	clk, ce, dioIn                             bool
	dioMode                                    drivers.PinMode

	// level the chip puts on the data line
	dioOut bool

	phase phase
	bits  uint
	cmd   uint8
	data  uint8
}

// NewDS1302 returns a simulated chip in its power-on state: write protected,
// clock halted and trickle charger off.
func NewDS1302(f Failer) *DS1302 {
	d := &DS1302{
		f:      f,
		dioOut: true,
		phase:  phaseDone,
	}
	d.clock[0] = 0x80
	d.clock[wpIndex] = wpBit
	d.clock[8] = 0x5C
	return d
}

// Pins returns the clock, data and chip enable pins wired to the chip.
func (d *DS1302) Pins() (clk, dio, ce drivers.Pin) {
	return clkPin{d}, dioPin{d}, cePin{d}
}

// Register returns the stored value of the register selected by a command
// byte. The read/write bit is ignored.
func (d *DS1302) Register(cmd uint8) uint8 {
	return *d.reg(cmd)
}

// SetRegister stores a value directly, bypassing write protection.
func (d *DS1302) SetRegister(cmd uint8, v uint8) {
	*d.reg(cmd) = v
}

// Log returns the transactions completed so far.
func (d *DS1302) Log() []Transaction {
	return append([]Transaction(nil), d.log...)
}

// ResetLog forgets the recorded transactions.
func (d *DS1302) ResetLog() {
	d.log = nil
}

// Disconnect makes the chip stop responding. The data line floats high and
// writes are lost.
func (d *DS1302) Disconnect() {
	d.disconnected = true
}

func (d *DS1302) reg(cmd uint8) *uint8 {
	i := cmd >> 1 & 0x1F
	if cmd&0x40 != 0 {
		if int(i) >= ramSize {
			d.f.Fatalf("ds1302: burst mode not simulated (command %#02x)", cmd)
		}
		return &d.ram[i]
	}
	if int(i) >= clockRegs {
		d.f.Fatalf("ds1302: no clock register for command %#02x", cmd)
	}
	return &d.clock[i]
}

func (d *DS1302) begin() {
	if d.clk {
		d.f.Fatalf("ds1302: chip enable raised while clock is high")
	}
	d.phase = phaseCommand
	d.bits = 0
	d.cmd = 0
	d.data = 0
}

func (d *DS1302) end() {
	if d.phase == phaseRead {
		d.log = append(d.log, Transaction{Command: d.cmd, Data: d.data})
	}
	d.phase = phaseDone
	d.dioOut = true
}

func (d *DS1302) rising() {
	if !d.ce {
		return
	}
	switch d.phase {
	case phaseCommand:
		d.cmd |= d.sample() << d.bits
		d.bits++
		if d.bits < 8 {
			return
		}
		d.bits = 0
		if d.cmd&0x80 == 0 {
			d.f.Fatalf("ds1302: command byte %#02x lacks bit 7", d.cmd)
		}
		if d.cmd&0x01 != 0 {
			d.phase = phaseRead
			d.data = d.read()
		} else {
			d.phase = phaseWrite
		}
	case phaseWrite:
		d.data |= d.sample() << d.bits
		d.bits++
		if d.bits == 8 {
			d.write()
			d.log = append(d.log, Transaction{Command: d.cmd, Data: d.data})
			d.phase = phaseDone
		}
	case phaseRead:
		if d.dioMode != drivers.PinInput {
			d.f.Fatalf("ds1302: bus contention, data pin driven while chip is sending")
		}
	}
}

func (d *DS1302) falling() {
	if !d.ce || d.phase != phaseRead || d.bits >= 8 {
		return
	}
	d.dioOut = d.data>>d.bits&1 != 0
	d.bits++
}

func (d *DS1302) sample() uint8 {
	if d.dioMode != drivers.PinOutput {
		d.f.Fatalf("ds1302: data bit clocked in while data pin is an input")
	}
	if d.dioIn {
		return 1
	}
	return 0
}

func (d *DS1302) read() uint8 {
	if d.disconnected {
		return 0xFF
	}
	return *d.reg(d.cmd)
}

func (d *DS1302) write() {
	if d.disconnected {
		return
	}
	protected := d.clock[wpIndex]&wpBit != 0
	if d.cmd&0x40 != 0 {
		if !protected {
			*d.reg(d.cmd) = d.data
		}
		return
	}
	i := d.cmd >> 1 & 0x1F
	if protected && i != wpIndex {
		return
	}
	if int(i) < clockRegs {
		d.clock[i] = d.data & clockMasks[i]
	}
}

type clkPin struct{ d *DS1302 }

func (p clkPin) Configure(mode drivers.PinMode) {
	if mode != drivers.PinOutput {
		p.d.f.Fatalf("ds1302: clock pin configured as %s", mode)
	}
	p.d.clkConfigured = true
}

func (p clkPin) Set(high bool) {
	d := p.d
	if !d.clkConfigured {
		d.f.Fatalf("ds1302: clock pin used before it was configured")
	}
	switch {
	case high && !d.clk:
		d.clk = true
		d.rising()
	case !high && d.clk:
		d.clk = false
		d.falling()
	}
}

func (p clkPin) Get() bool {
	return p.d.clk
}

type cePin struct{ d *DS1302 }

func (p cePin) Configure(mode drivers.PinMode) {
	if mode != drivers.PinOutput {
		p.d.f.Fatalf("ds1302: chip enable pin configured as %s", mode)
	}
	p.d.ceConfigured = true
}

func (p cePin) Set(high bool) {
	d := p.d
	if !d.ceConfigured {
		d.f.Fatalf("ds1302: chip enable pin used before it was configured")
	}
	switch {
	case high && !d.ce:
		d.ce = true
		d.begin()
	case !high && d.ce:
		d.ce = false
		d.end()
	}
}

func (p cePin) Get() bool {
	return p.d.ce
}

type dioPin struct{ d *DS1302 }

func (p dioPin) Configure(mode drivers.PinMode) {
	p.d.dioMode = mode
	p.d.dioConfigured = true
}

func (p dioPin) Set(high bool) {
	d := p.d
	if !d.dioConfigured || d.dioMode != drivers.PinOutput {
		d.f.Fatalf("ds1302: data pin set while not configured as output")
	}
	d.dioIn = high
}

func (p dioPin) Get() bool {
	d := p.d
	if d.dioMode == drivers.PinOutput {
		return d.dioIn
	}
	if d.disconnected {
		return true
	}
	return d.dioOut
}
