// SPDX-License-Identifier: MIT

//go:build windows

package serial

var defaultConfig = Config{
	Port: "COM1",
	Baud: 115200,
}
