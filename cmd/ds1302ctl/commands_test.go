package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ajanata/drivers/ds1302"
	"github.com/ajanata/drivers/tester"
)

func newRTC(c *qt.C) *ds1302.Device {
	sim := tester.NewDS1302(c)
	rtc := ds1302.New(sim.Pins())
	rtc.Configure(ds1302.Config{})
	return rtc
}

var executeTests = []struct {
	about  string
	setup  [][]string
	args   []string
	expect string
	err    string
}{{
	about:  "minute wraps",
	setup:  [][]string{{"put", "minute", "65"}},
	args:   []string{"get", "minute"},
	expect: "05\n",
}, {
	about:  "datetime",
	setup:  [][]string{{"datetime", "2024", "3", "9", "6", "13", "45", "30"}},
	args:   []string{"datetime"},
	expect: "2024 03 09 6 13 45 30\n",
}, {
	about: "datetime with bad value",
	args:  []string{"datetime", "2024", "3", "9", "six", "13", "45", "30"},
	err:   `bad weekday: strconv.Atoi: parsing "six": invalid syntax`,
}, {
	about: "datetime with too few values",
	args:  []string{"datetime", "2024"},
	err:   `usage: datetime \[year month day weekday hour minute second\]`,
}, {
	about:  "ram index wraps",
	setup:  [][]string{{"ram", "0", "0x42"}},
	args:   []string{"ram", "31"},
	expect: "0x42\n",
}, {
	about:  "set and now",
	setup:  [][]string{{"set", "2024-03-09T13:45:30Z"}},
	args:   []string{"now"},
	expect: "2024-03-09T13:45:30Z\n",
}, {
	about:  "now while halted",
	setup:  [][]string{{"set", "2024-03-09T13:45:30Z"}, {"stop"}},
	args:   []string{"now"},
	expect: "2024-03-09T13:45:30Z (halted)\n",
}, {
	about: "now on a blank chip",
	args:  []string{"now"},
	err:   "ds1302: value out of range: day 0",
}, {
	about:  "stop",
	setup:  [][]string{{"start"}, {"stop"}},
	args:   []string{"halted"},
	expect: "true\n",
}, {
	about:  "start",
	setup:  [][]string{{"start"}},
	args:   []string{"halted"},
	expect: "false\n",
}, {
	about:  "charger",
	setup:  [][]string{{"charger", "0xA5"}},
	args:   []string{"charger"},
	expect: "0xa5\n",
}, {
	about: "dump",
	setup: [][]string{{"ram", "0", "0x42"}, {"ram", "30", "255"}},
	args:  []string{"dump"},
	expect: "42 00 00 00 00 00 00 00\n" +
		"00 00 00 00 00 00 00 00\n" +
		"00 00 00 00 00 00 00 00\n" +
		"00 00 00 00 00 00 ff\n",
}, {
	about: "unknown command",
	args:  []string{"frob"},
	err:   `unknown command "frob"`,
}, {
	about: "unknown field",
	args:  []string{"get", "fortnight"},
	err:   `unknown field "fortnight"`,
}, {
	about: "missing argument",
	args:  []string{"get"},
	err:   `usage: get <field>`,
}, {
	about: "bad time",
	args:  []string{"set", "yesterday"},
	err:   `parsing time "yesterday" .*`,
}}

func TestExecute(t *testing.T) {
	c := qt.New(t)
	for _, test := range executeTests {
		c.Run(test.about, func(c *qt.C) {
			rtc := newRTC(c)
			for _, args := range test.setup {
				c.Assert(execute(rtc, &bytes.Buffer{}, args), qt.IsNil)
			}
			var out bytes.Buffer
			err := execute(rtc, &out, test.args)
			if test.err != "" {
				c.Assert(err, qt.ErrorMatches, test.err)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(out.String(), qt.Equals, test.expect)
		})
	}
}

func TestShell(t *testing.T) {
	c := qt.New(t)
	rtc := newRTC(c)
	in := strings.NewReader(`# set the clock
set 2024-03-09T13:45:30Z
get year

put month 13
get month
bogus
ram 3 'not a number'
quit
get day
`)
	var out bytes.Buffer
	err := runShell(rtc, in, &out, func() error { return nil })
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, `2024
00
error: unknown command "bogus"
error: strconv.ParseUint: parsing "not a number": invalid syntax
`)
}

func TestShellStopsOnBusError(t *testing.T) {
	c := qt.New(t)
	rtc := newRTC(c)
	busErr := errors.New("line released")
	var out bytes.Buffer
	err := runShell(rtc, strings.NewReader("halted\nhalted\n"), &out, func() error { return busErr })
	c.Assert(err, qt.Equals, busErr)
	c.Assert(out.String(), qt.Equals, "true\n")
}

func TestReport(t *testing.T) {
	c := qt.New(t)
	rtc := newRTC(c)
	c.Assert(execute(rtc, &bytes.Buffer{}, []string{"set", "2024-03-09T13:45:30Z"}), qt.IsNil)

	data, err := json.Marshal(newReport(rtc))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals,
		`{"time":"2024-03-09T13:45:30Z","fields":["2024","03","09","7","13","45","30"],"halted":false}`)

	rtc.Stop()
	r := newReport(rtc)
	c.Assert(r.Halted, qt.IsTrue)
	c.Assert(r.Error, qt.Equals, "")

	rtc.Set(ds1302.Month, 13)
	r = newReport(rtc)
	c.Assert(r.Time, qt.Equals, "")
	c.Assert(r.Error, qt.Equals, "ds1302: value out of range: month 0")
}

func TestClientID(t *testing.T) {
	c := qt.New(t)
	id := clientID()
	c.Assert(strings.HasPrefix(id, "ds1302ctl-"), qt.IsTrue)
	c.Assert(len(id) > len("ds1302ctl-"), qt.IsTrue, qt.Commentf("id %q", id))
}
