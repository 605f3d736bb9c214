// SPDX-License-Identifier: MIT

//go:build darwin

package serial

var defaultConfig = Config{
	Port: "/dev/tty.usbserial",
	Baud: 115200,
}
