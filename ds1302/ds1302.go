// Package ds1302 implements a driver for the DS1302 trickle-charge timekeeping
// chip. The chip is not on an I2C or SPI bus: it talks over a 3-wire serial
// interface (clock, bidirectional data and chip enable) that this package
// bit-bangs on three GPIO pins.
//
// Every register is addressed by a command byte. Even command bytes write a
// register and the following odd command byte reads it back. Clock registers
// hold BCD values and are write protected until the write protect register is
// cleared, which this driver does around every write.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS1302.pdf
package ds1302

import (
	"strconv"
	"sync"

	"github.com/ajanata/drivers"
)

// century is added to the two-digit year register. The chip does not store
// the century.
const century = 2000

// LogPrintf is the signature of the optional trace hook.
type LogPrintf func(format string, v ...interface{})

type Config struct {
	// Logger, if not nil, is called once for every register transaction.
	Logger LogPrintf
}

// Device is a DS1302 attached to three GPIO pins. A Device serializes its own
// transactions, but nothing else may drive the pins while it is in use.
type Device struct {
	mu  sync.Mutex
	clk drivers.Pin
	dio drivers.Pin
	ce  drivers.Pin
	log LogPrintf
}

// New creates a new driver for a DS1302 on the given clock, data and chip
// enable pins. Configure must be called before use.
func New(clk, dio, ce drivers.Pin) *Device {
	return &Device{
		clk: clk,
		dio: dio,
		ce:  ce,
	}
}

// Configure sets up the pins. The clock and chip enable pins become outputs
// and are driven low. The data pin is left as an input until a transaction
// needs to drive it.
func (d *Device) Configure(c Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = c.Logger
	d.ce.Configure(drivers.PinOutput)
	d.ce.Set(false)
	d.clk.Configure(drivers.PinOutput)
	d.clk.Set(false)
	d.dio.Configure(drivers.PinInput)
}

// Field is one of the timekeeping registers.
type Field uint8

// The fields in register order.
const (
	Second Field = iota
	Minute
	Hour
	Day
	Month
	Weekday
	Year
)

// DateTimeFields is the order used by DateTime, SetDateTime and
// DateTimeStrings.
var DateTimeFields = [7]Field{Year, Month, Day, Weekday, Hour, Minute, Second}

var fieldNames = [...]string{"second", "minute", "hour", "day", "month", "weekday", "year"}

// moduli holds the value each setter reduces its argument by.
var moduli = [...]int{60, 60, 24, 32, 13, 8, 100}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "Field(" + strconv.Itoa(int(f)) + ")"
}

// Valid reports whether f is one of the declared fields.
func (f Field) Valid() bool {
	return int(f) < len(moduli)
}

// Register returns the write command byte of the field. The read command is
// one more. It panics if f is not Valid.
func (f Field) Register() uint8 {
	if !f.Valid() {
		panic("ds1302: invalid " + f.String())
	}
	return RegSecond + 2*uint8(f)
}

// Modulus returns the value a field setter reduces its argument by. It panics
// if f is not Valid.
func (f Field) Modulus() int {
	if !f.Valid() {
		panic("ds1302: invalid " + f.String())
	}
	return moduli[f]
}

// ParseField looks up a field by the name returned from Field.String.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Get reads a field and returns its decimal value. Seconds are reduced modulo
// 60 and years have the century added. No validation is done: a chip that is
// not answering, or a halted clock with its flag in the seconds register,
// yields garbage. Now is the validating alternative. Get panics, before any
// bus activity, if f is not one of the declared fields.
func (d *Device) Get(f Field) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.get(f)
}

// Set reduces v by the field's modulus, converts it to BCD and writes it.
// Setting the second field also clears the clock halt flag, starting the
// oscillator. Set panics, before any bus activity, if f is not one of the
// declared fields.
func (d *Device) Set(f Field, v int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.set(f, v)
}

// GetString reads a field and formats it with Format.
func (d *Device) GetString(f Field) string {
	return Format(f, d.Get(f))
}

func (d *Device) get(f Field) int {
	v := bcdToDec(d.getRegister(f.Register() | readBit))
	switch f {
	case Second:
		v %= 60
	case Year:
		v += century
	}
	return v
}

func (d *Device) set(f Field, v int) {
	d.writeProtected(f.Register(), decToBcd(mod(v, f.Modulus())))
}

// Format renders a field value the way a clock display shows it: single
// digits get a leading zero, except for the weekday which is a bare digit.
// Older DS1302 libraries pad the weekday too ("06"); this one does not.
func Format(f Field, v int) string {
	s := strconv.Itoa(v)
	if f != Weekday && v >= 0 && v < 10 {
		return "0" + s
	}
	return s
}

func (d *Device) Second() int      { return d.Get(Second) }
func (d *Device) SetSecond(v int)  { d.Set(Second, v) }
func (d *Device) Minute() int      { return d.Get(Minute) }
func (d *Device) SetMinute(v int)  { d.Set(Minute, v) }
func (d *Device) Hour() int        { return d.Get(Hour) }
func (d *Device) SetHour(v int)    { d.Set(Hour, v) }
func (d *Device) Day() int         { return d.Get(Day) }
func (d *Device) SetDay(v int)     { d.Set(Day, v) }
func (d *Device) Month() int       { return d.Get(Month) }
func (d *Device) SetMonth(v int)   { d.Set(Month, v) }
func (d *Device) Weekday() int     { return d.Get(Weekday) }
func (d *Device) SetWeekday(v int) { d.Set(Weekday, v) }
func (d *Device) Year() int        { return d.Get(Year) }
func (d *Device) SetYear(v int)    { d.Set(Year, v) }

// Start clears the clock halt flag, leaving the seconds untouched.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.getRegister(RegSecond | readBit)
	d.writeProtected(RegSecond, v&^haltBit)
}

// Stop sets the clock halt flag, stopping the oscillator. The seconds are
// kept.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.getRegister(RegSecond | readBit)
	d.writeProtected(RegSecond, v|haltBit)
}

// Halted reports whether the clock halt flag is set. It is set at power-on
// when the backup supply was lost.
func (d *Device) Halted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getRegister(RegSecond|readBit)&haltBit != 0
}

// DateTime reads every field, in DateTimeFields order.
func (d *Device) DateTime() [7]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v [7]int
	for i, f := range DateTimeFields {
		v[i] = d.get(f)
	}
	return v
}

// SetDateTime writes every field, in DateTimeFields order. Each field gets
// its own write protect cycle, exactly as if the setters were called one by
// one.
func (d *Device) SetDateTime(v [7]int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, f := range DateTimeFields {
		d.set(f, v[i])
	}
}

// DateTimeStrings is DateTime with every value passed through Format.
func (d *Device) DateTimeStrings() [7]string {
	v := d.DateTime()
	var s [7]string
	for i, f := range DateTimeFields {
		s[i] = Format(f, v[i])
	}
	return s
}

// RAM reads a scratch RAM byte. The index wraps modulo RAMSize.
func (d *Device) RAM(index int) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getRegister(ramRegister(index) | readBit)
}

// SetRAM writes a scratch RAM byte. The index wraps modulo RAMSize.
func (d *Device) SetRAM(index int, value byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeProtected(ramRegister(index), value)
}

// TrickleCharger reads the trickle charger register.
func (d *Device) TrickleCharger() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getRegister(RegTrickleCharger | readBit)
}

// SetTrickleCharger writes the trickle charger register. Use one of the
// Trickle constants; any value without the enable pattern in the upper nibble
// turns the charger off.
func (d *Device) SetTrickleCharger(v byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeProtected(RegTrickleCharger, v)
}

func ramRegister(index int) uint8 {
	return RegRAM + 2*uint8(mod(index, RAMSize))
}

// writeProtected clears write protection, writes the register and protects
// the chip again. The chip silently drops writes while protected.
func (d *Device) writeProtected(reg, v uint8) {
	d.setRegister(RegWriteProtect, 0)
	d.setRegister(reg, v)
	d.setRegister(RegWriteProtect, wpEnabled)
}

func (d *Device) getRegister(reg uint8) uint8 {
	d.ce.Set(true)
	d.writeByte(reg)
	v := d.readByte()
	d.ce.Set(false)
	if d.log != nil {
		d.log("ds1302: read %#02x = %#02x", reg, v)
	}
	return v
}

func (d *Device) setRegister(reg, v uint8) {
	d.ce.Set(true)
	d.writeByte(reg)
	d.writeByte(v)
	d.ce.Set(false)
	if d.log != nil {
		d.log("ds1302: write %#02x = %#02x", reg, v)
	}
}

// writeByte shifts a byte out LSB first. The chip samples the data line on
// the rising clock edge.
func (d *Device) writeByte(v uint8) {
	d.dio.Configure(drivers.PinOutput)
	for i := 0; i < 8; i++ {
		d.dio.Set(v>>i&1 != 0)
		d.clk.Set(true)
		d.clk.Set(false)
	}
}

// readByte shifts a byte in LSB first. The chip puts the next bit on the data
// line after each falling clock edge.
func (d *Device) readByte() uint8 {
	d.dio.Configure(drivers.PinInput)
	var v uint8
	for i := 0; i < 8; i++ {
		if d.dio.Get() {
			v |= 1 << i
		}
		d.clk.Set(true)
		d.clk.Set(false)
	}
	return v
}

// mod is the floor modulo, so negative arguments wrap to the top of the range.
func mod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}

// decToBcd converts int to BCD. v must be in 0..99.
func decToBcd(v int) uint8 {
	return uint8(v + 6*(v/10))
}

// bcdToDec converts BCD to int. Non-BCD nibbles are not detected.
func bcdToDec(bcd uint8) int {
	return int(bcd) - 6*int(bcd>>4)
}
