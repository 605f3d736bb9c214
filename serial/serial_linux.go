// SPDX-License-Identifier: MIT

//go:build linux

package serial

var defaultConfig = Config{
	Port: "/dev/ttyUSB0",
	Baud: 115200,
}
