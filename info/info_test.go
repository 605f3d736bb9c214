package info

import "testing"

func TestHasPrefix(t *testing.T) {
	l := "cmd: blah"
	// Has
	if !HasPrefix(l, "cmd") {
		t.Error("didn't find prefix")
	}
	// Hasn't
	if HasPrefix(l, "cmd:") {
		t.Error("found prefix")
	}
}

func TestTrimPrefix(t *testing.T) {
	// no prefix
	i := TrimPrefix("info line", "cmd")
	if i != "info line" {
		t.Errorf("expected trimmed line 'info line' but got '%s'", i)
	}
	// prefix
	i = TrimPrefix("cmd:info line", "cmd")
	if i != "info line" {
		t.Errorf("expected trimmed line 'info line' but got '%s'", i)
	}

	// prefix and space
	i = TrimPrefix("cmd: info line", "cmd")
	if i != "info line" {
		t.Errorf("expected trimmed line 'info line' but got '%s'", i)
	}
}

func TestFields(t *testing.T) {
	f := Fields("+CMGL: 1,\"REC UNREAD\",\"+1555\",,\"21/01/01,10:00:00+00\"")
	want := []string{
		"+CMGL: 1", "\"REC UNREAD\"", "\"+1555\"", "", "\"21/01/01", "10:00:00+00\"",
	}
	if len(f) != len(want) {
		t.Fatalf("expected %d fields but got %d: %v", len(want), len(f), f)
	}
	for i := range want {
		if f[i] != want[i] {
			t.Errorf("field %d: expected '%s' but got '%s'", i, want[i], f[i])
		}
	}
}

func TestUnquote(t *testing.T) {
	u := Unquote("\"+1555\"")
	if u != "+1555" {
		t.Errorf("expected '+1555' but got '%s'", u)
	}
	// quotes anywhere are stripped
	u = Unquote("10:00:00\"")
	if u != "10:00:00" {
		t.Errorf("expected '10:00:00' but got '%s'", u)
	}
	// no quotes
	u = Unquote("plain")
	if u != "plain" {
		t.Errorf("expected 'plain' but got '%s'", u)
	}
}
