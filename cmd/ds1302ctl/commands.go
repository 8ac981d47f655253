package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/ajanata/drivers/ds1302"
)

type command struct {
	args string
	help string
	run  func(rtc *ds1302.Device, w io.Writer, args []string) error
}

var commands map[string]command

func init() {
	// assigned here because help refers to the table
	commands = map[string]command{
		"now": {
			help: "print the clock as an RFC3339 time",
			run:  cmdNow,
		},
		"set": {
			args: "<RFC3339 time>|now",
			help: "set and start the clock, \"now\" uses the system time",
			run:  cmdSet,
		},
		"get": {
			args: "<field>",
			help: "print one field: second, minute, hour, day, month, weekday or year",
			run:  cmdGet,
		},
		"put": {
			args: "<field> <value>",
			help: "write one field, the value is reduced to the field's range",
			run:  cmdPut,
		},
		"datetime": {
			args: "[year month day weekday hour minute second]",
			help: "print or write all fields",
			run:  cmdDateTime,
		},
		"ram": {
			args: "<index> [value]",
			help: "print or write a scratch RAM byte",
			run:  cmdRAM,
		},
		"dump": {
			help: "print all scratch RAM bytes",
			run:  cmdDump,
		},
		"start": {
			help: "start the oscillator",
			run: func(rtc *ds1302.Device, w io.Writer, args []string) error {
				rtc.Start()
				return nil
			},
		},
		"stop": {
			help: "halt the oscillator",
			run: func(rtc *ds1302.Device, w io.Writer, args []string) error {
				rtc.Stop()
				return nil
			},
		},
		"halted": {
			help: "print whether the oscillator is halted",
			run: func(rtc *ds1302.Device, w io.Writer, args []string) error {
				fmt.Fprintln(w, rtc.Halted())
				return nil
			},
		},
		"charger": {
			args: "[value]",
			help: "print or write the trickle charger register",
			run:  cmdCharger,
		},
		"help": {
			help: "print this list",
			run: func(rtc *ds1302.Device, w io.Writer, args []string) error {
				printHelp(w)
				return nil
			},
		},
	}
}

func printHelp(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "%s %s\n\t%s\n", name, cmd.args, cmd.help)
	}
}

var errUsage = errors.New("usage")

// execute runs a single command line.
func execute(rtc *ds1302.Device, w io.Writer, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	err := cmd.run(rtc, w, args[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s %s", args[0], cmd.args)
	}
	return err
}

// runShell reads commands line by line. Command errors are printed and the
// shell carries on; a failing bus stops it.
func runShell(rtc *ds1302.Device, r io.Reader, w io.Writer, busErr func() error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}
		if err := execute(rtc, w, args); err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
		if err := busErr(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func cmdNow(rtc *ds1302.Device, w io.Writer, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	t, err := rtc.Now()
	switch {
	case errors.Is(err, ds1302.ErrHalted):
		fmt.Fprintf(w, "%s (halted)\n", t.Format(time.RFC3339))
	case err != nil:
		return err
	default:
		fmt.Fprintln(w, t.Format(time.RFC3339))
	}
	return nil
}

func cmdSet(rtc *ds1302.Device, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	t := time.Now()
	if args[0] != "now" {
		var err error
		t, err = time.Parse(time.RFC3339, args[0])
		if err != nil {
			return err
		}
	}
	return rtc.SetTime(t)
}

func cmdGet(rtc *ds1302.Device, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := parseField(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, rtc.GetString(f))
	return nil
}

func cmdPut(rtc *ds1302.Device, w io.Writer, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	f, err := parseField(args[0])
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	rtc.Set(f, v)
	return nil
}

func cmdDateTime(rtc *ds1302.Device, w io.Writer, args []string) error {
	switch len(args) {
	case 0:
		v := rtc.DateTimeStrings()
		fmt.Fprintln(w, strings.Join(v[:], " "))
		return nil
	case len(ds1302.DateTimeFields):
		var v [7]int
		for i, arg := range args {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("bad %s: %w", ds1302.DateTimeFields[i], err)
			}
			v[i] = n
		}
		rtc.SetDateTime(v)
		return nil
	}
	return errUsage
}

func cmdRAM(rtc *ds1302.Device, w io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	if len(args) == 1 {
		fmt.Fprintf(w, "%#02x\n", rtc.RAM(index))
		return nil
	}
	v, err := parseByte(args[1])
	if err != nil {
		return err
	}
	return rtc.VerifyRAM(index, v)
}

func cmdDump(rtc *ds1302.Device, w io.Writer, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	for i := 0; i < ds1302.RAMSize; i++ {
		sep := " "
		if i%8 == 7 || i == ds1302.RAMSize-1 {
			sep = "\n"
		}
		fmt.Fprintf(w, "%02x%s", rtc.RAM(i), sep)
	}
	return nil
}

func cmdCharger(rtc *ds1302.Device, w io.Writer, args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintf(w, "%#02x\n", rtc.TrickleCharger())
		return nil
	case 1:
		v, err := parseByte(args[0])
		if err != nil {
			return err
		}
		rtc.SetTrickleCharger(v)
		return nil
	}
	return errUsage
}

func parseField(name string) (ds1302.Field, error) {
	f, ok := ds1302.ParseField(name)
	if !ok {
		return 0, fmt.Errorf("unknown field %q", name)
	}
	return f, nil
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
