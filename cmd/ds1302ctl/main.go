// The ds1302ctl command reads and sets a DS1302 real time clock wired to the
// GPIO lines of a Linux board.
//
// With no arguments it prints the clock time. Arguments are run as a single
// command (see "ds1302ctl help"); -shell reads commands from standard input
// instead, and -mqtt publishes the clock to an MQTT broker periodically.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/ajanata/drivers"
	"github.com/ajanata/drivers/ds1302"
)

var (
	chip     = flag.String("chip", "gpiochip0", "GPIO chip the DS1302 is wired to")
	clkLine  = flag.Int("clk", 17, "line offset of the clock (SCLK) pin")
	dioLine  = flag.Int("dat", 27, "line offset of the data (I/O) pin")
	ceLine   = flag.Int("ce", 22, "line offset of the chip enable (CE) pin")
	setSys   = flag.Bool("sys", false, "use RTC time to set system clock")
	shell    = flag.Bool("shell", false, "read commands from standard input")
	broker   = flag.String("mqtt", "", "publish the time to this MQTT broker, e.g. tcp://localhost:1883")
	topic    = flag.String("topic", "ds1302/time", "MQTT topic to publish to")
	interval = flag.Duration("interval", 10*time.Second, "MQTT publishing interval")
	debug    = flag.Bool("debug", false, "print debug messages")
	trace    = flag.Bool("trace", false, "print every register transaction")
)

var logger = loggo.GetLogger("ds1302ctl")

// pinSet holds the three lines the chip is wired to.
type pinSet interface {
	Pins() (clk, dio, ce drivers.Pin)
	// Err returns the first error reported by any of the lines.
	Err() error
	Close()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ds1302ctl [flags] [command [arg...]]\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "Run \"ds1302ctl help\" for the list of commands.\n")
		os.Exit(2)
	}
	flag.Parse(true)
	switch {
	case *trace:
		loggo.ConfigureLoggers("<root>=TRACE")
	case *debug:
		loggo.ConfigureLoggers("<root>=DEBUG")
	}
	if flag.NArg() > 0 && flag.Arg(0) == "help" {
		printHelp(os.Stdout)
		return
	}

	pins, err := openPins(*chip, *clkLine, *dioLine, *ceLine)
	if err != nil {
		log.Fatalf("cannot open GPIO lines: %v", err)
	}
	rtc := ds1302.New(pins.Pins())
	cfg := ds1302.Config{}
	if *trace {
		cfg.Logger = logger.Tracef
	}
	rtc.Configure(cfg)
	logger.Debugf("DS1302 on %s clk=%d dat=%d ce=%d", *chip, *clkLine, *dioLine, *ceLine)

	err = run(rtc, pins)
	pins.Close()
	if err != nil {
		log.Fatal(err)
	}
}

func run(rtc *ds1302.Device, pins pinSet) error {
	switch {
	case *broker != "":
		return publish(rtc, pins.Err, *broker, *topic, *interval)
	case *shell:
		return runShell(rtc, os.Stdin, os.Stdout, pins.Err)
	case flag.NArg() > 0:
		if err := execute(rtc, os.Stdout, flag.Args()); err != nil {
			return err
		}
		if err := pins.Err(); err != nil {
			return err
		}
		if !*setSys {
			return nil
		}
	}
	t, err := rtc.Now()
	if busErr := pins.Err(); busErr != nil {
		return busErr
	}
	if err != nil {
		if !errors.Is(err, ds1302.ErrHalted) {
			return fmt.Errorf("cannot get now: %w", err)
		}
		logger.Warningf("clock is halted")
	}
	if *setSys {
		if err != nil {
			return fmt.Errorf("not setting system time from a halted clock")
		}
		if err := setSysTime(t); err != nil {
			return fmt.Errorf("cannot set system time: %w", err)
		}
		logger.Infof("system time set to %s", t.Format(time.RFC3339))
		return nil
	}
	fmt.Println(t.Format(time.RFC3339))
	return nil
}
