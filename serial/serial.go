// Package serial opens serial ports configured for the polling reads the at
// driver requires.
package serial

import (
	"time"

	"github.com/tarm/serial"
)

// Config describes a serial connection to a modem.
type Config struct {
	// Port is the device path, e.g. /dev/ttyUSB0 or COM1.
	Port string

	// Baud is the line rate. Most modems autodetect it from the first
	// command, which is what the at driver's Sync relies on.
	Baud int
}

// Default returns the conventional modem port and baud rate for the
// platform.
func Default() Config {
	return defaultConfig
}

// New opens the serial device for AT use.
//
// The port is configured with a short read timeout so reads return promptly
// with whatever bytes the modem has buffered, which is the polling contract
// the at reader requires.
func New(port string, baud int) (*serial.Port, error) {
	config := &serial.Config{
		Name:        port,
		Baud:        baud,
		ReadTimeout: 50 * time.Millisecond,
	}
	return serial.OpenPort(config)
}
