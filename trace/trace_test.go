// SPDX-License-Identifier: MIT

package trace

import (
	"bytes"
	"log"
	"testing"
)

func TestNew(t *testing.T) {
	mrw := bytes.NewBufferString("one")
	b := bytes.Buffer{}
	l := log.New(&b, "", log.LstdFlags)
	// vanilla
	tr := New(mrw)
	if tr == nil {
		t.Error("new failed")
	}
	// with opts
	tr = New(mrw, WithLogger(l), WithReadFormat("r: %v"))
	if tr == nil {
		t.Error("new failed")
	}
}

func TestRead(t *testing.T) {
	mrw := bytes.NewBufferString("one")
	b := bytes.Buffer{}
	l := log.New(&b, "", 0)
	tr := New(mrw, WithLogger(l))
	if tr == nil {
		t.Error("new failed")
	}
	i := make([]byte, 10)
	n, err := tr.Read(i)
	if err != nil {
		t.Error("unexpected error:", err)
	}
	if n != 3 {
		t.Error("unexpected length:", n)
	}
	if bytes.Compare(b.Bytes(), []byte("r: one\n")) != 0 {
		t.Errorf("unexpected log: '%s'", b.Bytes())
	}
}

func TestWrite(t *testing.T) {
	mrw := bytes.NewBufferString("one")
	b := bytes.Buffer{}
	l := log.New(&b, "", 0)
	tr := New(mrw, WithLogger(l))
	if tr == nil {
		t.Error("new failed")
	}
	n, err := tr.Write([]byte("two"))
	if err != nil {
		t.Error("unexpected error:", err)
	}
	if n != 3 {
		t.Error("unexpected length:", n)
	}
	if bytes.Compare(b.Bytes(), []byte("w: two\n")) != 0 {
		t.Errorf("unexpected log: '%s'", b.Bytes())
	}
}

func TestWithReadFormat(t *testing.T) {
	mrw := bytes.NewBufferString("one")
	b := bytes.Buffer{}
	l := log.New(&b, "", 0)
	tr := New(mrw, WithLogger(l), WithReadFormat("R: %v"))
	if tr == nil {
		t.Error("new failed")
	}
	i := make([]byte, 10)
	n, err := tr.Read(i)
	if err != nil {
		t.Error("unexpected error:", err)
	}
	if n != 3 {
		t.Error("unexpected length:", n)
	}
	if bytes.Compare(b.Bytes(), []byte("R: [111 110 101]\n")) != 0 {
		t.Errorf("unexpected log: '%s'", b.Bytes())
	}
}

func TestWithWriteFormat(t *testing.T) {
	mrw := bytes.NewBufferString("one")
	b := bytes.Buffer{}
	l := log.New(&b, "", 0)
	tr := New(mrw, WithLogger(l), WithWriteFormat("W: %v"))
	if tr == nil {
		t.Error("new failed")
	}
	n, err := tr.Write([]byte("two"))
	if err != nil {
		t.Error("unexpected error:", err)
	}
	if n != 3 {
		t.Error("unexpected length:", n)
	}
	if bytes.Compare(b.Bytes(), []byte("W: [116 119 111]\n")) != 0 {
		t.Errorf("unexpected log: '%s'", b.Bytes())
	}
}

func TestWithHexMode(t *testing.T) {
	mrw := bytes.NewBufferString("one")
	b := bytes.Buffer{}
	l := log.New(&b, "", 0)
	tr := New(mrw, WithLogger(l), WithHexMode())
	if tr == nil {
		t.Error("new failed")
	}
	i := make([]byte, 10)
	n, err := tr.Read(i)
	if err != nil {
		t.Error("unexpected error:", err)
	}
	if n != 3 {
		t.Error("unexpected length:", n)
	}
	if bytes.Compare(b.Bytes(), []byte("r: 6f 6e 65\n")) != 0 {
		t.Errorf("unexpected log: '%s'", b.Bytes())
	}
}
