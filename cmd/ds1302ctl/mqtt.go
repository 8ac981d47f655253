package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ajanata/drivers/ds1302"
)

// report is the JSON payload published to MQTT.
type report struct {
	Time   string    `json:"time,omitempty"`
	Fields [7]string `json:"fields"`
	Halted bool      `json:"halted"`
	Error  string    `json:"error,omitempty"`
}

func newReport(rtc *ds1302.Device) report {
	var r report
	t, err := rtc.Now()
	switch {
	case errors.Is(err, ds1302.ErrHalted):
		r.Halted = true
		r.Time = t.Format(time.RFC3339)
	case err != nil:
		r.Error = err.Error()
	default:
		r.Time = t.Format(time.RFC3339)
	}
	r.Fields = rtc.DateTimeStrings()
	return r
}

// publish connects to the broker and publishes a report every interval until
// publishing or the bus fails.
func publish(rtc *ds1302.Device, busErr func() error, broker, topic string, interval time.Duration) error {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timed out connecting to %s", broker)
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("cannot connect to %s: %w", broker, err)
	}
	defer client.Disconnect(250)
	logger.Infof("publishing to %s on %s every %s", topic, broker, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		payload, err := json.Marshal(newReport(rtc))
		if err != nil {
			return err
		}
		if err := busErr(); err != nil {
			return err
		}
		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("cannot publish: %w", err)
		}
		logger.Debugf("published %s", payload)
		<-ticker.C
	}
}

// clientID names the MQTT client after the host, falling back to the process
// id when the hostname is unavailable.
func clientID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		logger.Warningf("cannot get hostname: %v", err)
		return fmt.Sprintf("ds1302ctl-%d", os.Getpid())
	}
	return "ds1302ctl-" + hostname
}
