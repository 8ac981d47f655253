package ds1302

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoResponse is returned when every clock register reads as 0xFF,
	// which is what a floating data line looks like.
	ErrNoResponse = errors.New("ds1302: no response from device")
	// ErrInvalidBCD is returned when a register holds a nibble above 9.
	ErrInvalidBCD = errors.New("ds1302: invalid BCD value")
	// ErrOutOfRange is returned when a decoded field is outside its calendar range.
	ErrOutOfRange = errors.New("ds1302: value out of range")
	// ErrHalted is returned along with the stored time when the oscillator is stopped.
	ErrHalted = errors.New("ds1302: clock halted")
	// ErrYearOutOfRange is returned by SetTime for years the chip cannot store.
	ErrYearOutOfRange = errors.New("ds1302: year out of range")
	// ErrVerify is returned when a value read back differs from the one written.
	ErrVerify = errors.New("ds1302: read-back mismatch")
)

// maxDrift is how far the time read back after SetTime may be from the time
// written. The clock keeps running while it is being verified.
const maxDrift = 2 * time.Second

// Now reads the clock and returns it as a UTC time.Time. Unlike Get, it
// validates what it reads. If the clock is halted the stored time is returned
// together with ErrHalted.
func (d *Device) Now() (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now()
}

func (d *Device) now() (time.Time, error) {
	var buf [Year + 1]uint8
	floating := true
	for f := Second; f <= Year; f++ {
		buf[f] = d.getRegister(f.Register() | readBit)
		if buf[f] != 0xFF {
			floating = false
		}
	}
	if floating {
		return time.Time{}, ErrNoResponse
	}

	sec, err := decode(Second, buf[Second]&^haltBit, 0, 59)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := decode(Minute, buf[Minute], 0, 59)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := decodeHour(buf[Hour])
	if err != nil {
		return time.Time{}, err
	}
	day, err := decode(Day, buf[Day], 1, 31)
	if err != nil {
		return time.Time{}, err
	}
	month, err := decode(Month, buf[Month], 1, 12)
	if err != nil {
		return time.Time{}, err
	}
	year, err := decode(Year, buf[Year], 0, 99)
	if err != nil {
		return time.Time{}, err
	}
	// the weekday register is not needed to build the time

	t := time.Date(year+century, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if buf[Second]&haltBit != 0 {
		return t, ErrHalted
	}
	return t, nil
}

// SetTime writes t to the clock and starts it. The time is converted to UTC
// and rounded to the nearest second. The weekday register is set to 1 for
// Sunday through 7 for Saturday. The clock is read back afterwards and
// ErrVerify is returned if it does not hold the written time.
func (d *Device) SetTime(t time.Time) error {
	t = t.UTC()
	if t.Nanosecond() >= 0.5e9 {
		t = t.Add(time.Second)
	}
	t = t.Truncate(time.Second)
	if t.Year() < century || t.Year() >= century+100 {
		return ErrYearOutOfRange
	}
	v := [Year + 1]int{
		Second:  t.Second(),
		Minute:  t.Minute(),
		Hour:    t.Hour(),
		Day:     t.Day(),
		Month:   int(t.Month()),
		Weekday: int(t.Weekday()) + 1,
		Year:    t.Year() - century,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// One write protect cycle around all fields keeps the registers from
	// rolling over between writes. Seconds go last, which also clears the
	// halt flag.
	d.setRegister(RegWriteProtect, 0)
	for f := Year; f > Second; f-- {
		d.setRegister(f.Register(), decToBcd(v[f]))
	}
	d.setRegister(RegSecond, decToBcd(v[Second]))
	d.setRegister(RegWriteProtect, wpEnabled)

	got, err := d.now()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if diff := got.Sub(t); diff < 0 || diff > maxDrift {
		return fmt.Errorf("%w: wrote %s, read %s", ErrVerify, t.Format(time.RFC3339), got.Format(time.RFC3339))
	}
	return nil
}

// VerifyRAM writes a scratch RAM byte and reads it back.
func (d *Device) VerifyRAM(index int, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	reg := ramRegister(index)
	d.writeProtected(reg, value)
	if got := d.getRegister(reg | readBit); got != value {
		return fmt.Errorf("%w: ram[%d] wrote %#02x, read %#02x", ErrVerify, mod(index, RAMSize), value, got)
	}
	return nil
}

// decode converts a BCD register and checks it against [lo, hi].
func decode(f Field, bcd uint8, lo, hi int) (int, error) {
	if bcd&0x0F > 9 || bcd>>4 > 9 {
		return 0, fmt.Errorf("%w: %s register %#02x", ErrInvalidBCD, f, bcd)
	}
	v := bcdToDec(bcd)
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s %d", ErrOutOfRange, f, v)
	}
	return v, nil
}

// decodeHour handles both the 24-hour and the 12-hour register layout. In
// 12-hour mode bit 5 is the PM flag and bits 0-4 hold 1..12.
func decodeHour(bcd uint8) (int, error) {
	if bcd&mode12h == 0 {
		return decode(Hour, bcd&0x3F, 0, 23)
	}
	h, err := decode(Hour, bcd&0x1F, 1, 12)
	if err != nil {
		return 0, err
	}
	h %= 12
	if bcd&0x20 != 0 {
		h += 12
	}
	return h, nil
}
