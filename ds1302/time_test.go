package ds1302

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestNow(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	sim.SetRegister(RegSecond, 0x30)
	sim.SetRegister(RegMinute, 0x45)
	sim.SetRegister(RegHour, 0x13)
	sim.SetRegister(RegDay, 0x09)
	sim.SetRegister(RegMonth, 0x03)
	sim.SetRegister(RegWeekday, 0x07)
	sim.SetRegister(RegYear, 0x24)

	now, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(now, qt.Equals, time.Date(2024, 3, 9, 13, 45, 30, 0, time.UTC))

	// 11 PM in 12-hour mode
	sim.SetRegister(RegHour, 0xB1)
	now, err = d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(now.Hour(), qt.Equals, 23)

	// 12 AM in 12-hour mode
	sim.SetRegister(RegHour, 0x92)
	now, err = d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(now.Hour(), qt.Equals, 0)
}

func TestNowHalted(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	sim.SetRegister(RegSecond, 0x80|0x12)
	sim.SetRegister(RegMinute, 0x34)
	sim.SetRegister(RegDay, 0x01)
	sim.SetRegister(RegMonth, 0x01)
	now, err := d.Now()
	c.Assert(err, qt.ErrorIs, ErrHalted)
	c.Assert(now, qt.Equals, time.Date(2000, 1, 1, 0, 34, 12, 0, time.UTC))
}

func TestNowInvalid(t *testing.T) {
	tests := []struct {
		about string
		reg   uint8
		value uint8
		err   error
		msg   string
	}{{
		about: "non-BCD minute",
		reg:   RegMinute,
		value: 0x5A,
		err:   ErrInvalidBCD,
		msg:   "ds1302: invalid BCD value: minute register 0x5a",
	}, {
		about: "month thirteen",
		reg:   RegMonth,
		value: 0x13,
		err:   ErrOutOfRange,
		msg:   "ds1302: value out of range: month 13",
	}, {
		about: "day zero",
		reg:   RegDay,
		value: 0x00,
		err:   ErrOutOfRange,
		msg:   "ds1302: value out of range: day 0",
	}, {
		about: "hour 24",
		reg:   RegHour,
		value: 0x24,
		err:   ErrOutOfRange,
		msg:   "ds1302: value out of range: hour 24",
	}}
	c := qt.New(t)
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			d, sim := newDevice(c)
			sim.SetRegister(RegSecond, 0x00)
			sim.SetRegister(RegDay, 0x01)
			sim.SetRegister(RegMonth, 0x01)
			sim.SetRegister(test.reg, test.value)
			_, err := d.Now()
			c.Assert(err, qt.ErrorIs, test.err)
			c.Assert(err, qt.ErrorMatches, test.msg)
		})
	}
}

func TestNowNoResponse(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	sim.Disconnect()
	_, err := d.Now()
	c.Assert(err, qt.Equals, ErrNoResponse)
}

func TestSetTime(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	loc := time.FixedZone("UTC+2", 2*60*60)
	err := d.SetTime(time.Date(2024, 3, 9, 15, 45, 30, 600e6, loc))
	c.Assert(err, qt.IsNil)

	now, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(now, qt.Equals, time.Date(2024, 3, 9, 13, 45, 31, 0, time.UTC))
	// Saturday
	c.Assert(d.Weekday(), qt.Equals, 7)
	c.Assert(d.Halted(), qt.IsFalse)
	c.Assert(sim.Register(RegWriteProtect), qt.Equals, uint8(0x80))
}

func TestSetTimeYearOutOfRange(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	err := d.SetTime(time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC))
	c.Assert(err, qt.Equals, ErrYearOutOfRange)
	err = d.SetTime(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(err, qt.Equals, ErrYearOutOfRange)
	c.Assert(sim.Log(), qt.HasLen, 0)
}

func TestSetTimeVerify(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	sim.Disconnect()
	err := d.SetTime(time.Date(2024, 3, 9, 13, 45, 30, 0, time.UTC))
	c.Assert(err, qt.ErrorIs, ErrVerify)
	c.Assert(err, qt.ErrorMatches, "ds1302: read-back mismatch: ds1302: no response from device")
}

func TestVerifyRAM(t *testing.T) {
	c := qt.New(t)
	d, sim := newDevice(c)
	c.Assert(d.VerifyRAM(33, 0x5A), qt.IsNil)
	c.Assert(sim.Register(RegRAM+4), qt.Equals, uint8(0x5A))

	sim.Disconnect()
	err := d.VerifyRAM(2, 0x00)
	c.Assert(err, qt.ErrorIs, ErrVerify)
	c.Assert(err, qt.ErrorMatches, `ds1302: read-back mismatch: ram\[2\] wrote 0x00, read 0xff`)
}
