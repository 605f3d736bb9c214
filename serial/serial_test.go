package serial

import (
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Port == "" {
		t.Error("no default port")
	}
	if c.Baud == 0 {
		t.Error("no default baud rate")
	}
}

func TestNew(t *testing.T) {
	// bogus path
	p, err := New("bogusmodem", 115200)
	if err == nil {
		t.Error("New succeeded")
	}
	if p != nil {
		t.Error("New returned unexpected port")
	}
}
