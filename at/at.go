// SPDX-License-Identifier: MIT

// Package at provides a low level driver for AT modems.
//
// The driver frames the modem's asynchronous multi-line replies, tokenizes
// them into lines, and classifies the outcome of each command into a Status.
// It holds a single conversation with the modem at a time - a command must
// resolve (or time out) before the next is issued.
package at

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Status is the outcome of one command/reply cycle.
//
// Every command resolves to exactly one Status, derived from the final token
// of the reply or from a reader detected failure.
type Status int

const (
	// StatusUnknown indicates a reply that could not be classified.
	// It is never silently coerced to success.
	StatusUnknown Status = iota

	// StatusOK indicates the modem accepted the command.
	StatusOK

	// StatusPrompt indicates the modem is awaiting further raw input, as
	// after an SMS send command.
	StatusPrompt

	// StatusTimeout indicates no terminator arrived within the deadline.
	StatusTimeout

	// StatusError indicates the modem explicitly rejected the command.
	StatusError

	// StatusSIMPUK indicates the SIM is locked out and requires the PUK.
	// This is terminal and must never be retried automatically.
	StatusSIMPUK
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusPrompt:
		return "PROMPT"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusError:
		return "ERROR"
	case StatusSIMPUK:
		return "SIM PUK"
	}
	return "UNKNOWN"
}

// ModemError wraps a non-OK Status for operations that return data rather
// than a Status, such as listing stored messages.
type ModemError Status

func (e ModemError) Error() string {
	return "modem returned " + Status(e).String()
}

// Reply is the ordered sequence of non-empty lines of one modem response.
//
// The first line is typically the command echo and the last line the result
// code. A Reply is immutable once returned.
type Reply []string

// Final returns the last token of the reply, or "" for an empty reply.
func (r Reply) Final() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

// Status classifies the reply from its final token.
//
// This is the single classification chokepoint for all higher level
// operations and does not special-case individual commands.
func (r Reply) Status() Status {
	switch r.Final() {
	case ok:
		return StatusOK
	case prompt:
		return StatusPrompt
	case timeoutMark:
		return StatusTimeout
	case errored:
		return StatusError
	}
	return StatusUnknown
}

const (
	sub     = 0x1a
	crlf    = "\r\n"
	ok      = "OK"
	errored = "ERROR"
	prompt  = "> "

	// timeoutMark is appended as the final token of a reply that timed out,
	// so callers that only inspect the final token get uniform handling.
	timeoutMark = "TIMEOUT"

	// resetAttempts bounds the defensive re-probing performed by Reset.
	resetAttempts = 10
)

// terminators are the fixed trailing sequences that complete a reply.
// The prompt carries no trailing CRLF.
var terminators = [][]byte{
	[]byte(crlf + ok + crlf),
	[]byte(crlf + errored + crlf),
	[]byte(prompt),
}

// ErrDecode indicates the modem returned bytes that are not valid text.
var ErrDecode = errors.New("response is not valid text")

// AT represents a modem that can be managed using AT commands.
//
// The modem transport must implement polling reads: a Read with no bytes
// available returns promptly with n == 0 (a serial read timeout, reported by
// some ports as io.EOF, is treated the same way). The serial package opens
// ports configured accordingly.
//
// An AT is not safe for concurrent use. All command/reply pairs must be
// serialized by the caller - issuing a second command before the first
// resolves desynchronizes the link.
type AT struct {
	// the underlying modem
	modem io.ReadWriter

	// default deadline for a command reply when the context has none
	timeout time.Duration

	// per-attempt deadline for the Sync probe
	syncTimeout time.Duration

	// pause between polls of an idle transport
	pollInterval time.Duration
}

// Option is a construction option for an AT.
type Option func(*AT)

// WithTimeout sets the default command timeout.
//
// The default is 5 seconds. A deadline on the command context takes
// precedence.
func WithTimeout(d time.Duration) Option {
	return func(a *AT) {
		a.timeout = d
	}
}

// WithSyncTimeout sets the per-attempt timeout for the Sync probe.
//
// The default is 1 second.
func WithSyncTimeout(d time.Duration) Option {
	return func(a *AT) {
		a.syncTimeout = d
	}
}

// WithPollInterval sets the pause between polls of an idle transport.
//
// The default is 10 milliseconds.
func WithPollInterval(d time.Duration) Option {
	return func(a *AT) {
		a.pollInterval = d
	}
}

// New creates a new AT modem.
func New(modem io.ReadWriter, options ...Option) *AT {
	a := &AT{
		modem:        modem,
		timeout:      5 * time.Second,
		syncTimeout:  time.Second,
		pollInterval: 10 * time.Millisecond,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Read accumulates a single whole reply from the modem and tokenizes it.
//
// The reply is complete when the accumulated text ends with one of the fixed
// terminators, or when stop is non-empty and occurs anywhere in the text.
// The stop substring matches asynchronous announcements, such as "SMS Ready",
// that do not follow the standard terminator shape.
//
// The deadline is taken from ctx, falling back to the default command
// timeout. On expiry Read returns a Reply whose final token is TIMEOUT,
// carrying any partial tokens, and a nil error. Cancellation returns
// ctx.Err().
func (a *AT) Read(ctx context.Context, stop string) (Reply, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	var buf []byte
	chunk := make([]byte, 256)
	for {
		n, err := a.modem.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if !validPartial(buf) {
				return nil, errors.Wrapf(ErrDecode, "partial %q", buf)
			}
			if terminated(buf, stop) {
				if !utf8.Valid(buf) {
					return nil, errors.Wrapf(ErrDecode, "partial %q", buf)
				}
				return tokenize(buf), nil
			}
			// more may already be buffered, but a babbling transport that
			// never terminates must not outrun the deadline
			select {
			case <-ctx.Done():
				return expired(ctx, buf)
			default:
			}
			continue
		}
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "read")
		}
		select {
		case <-ctx.Done():
			return expired(ctx, buf)
		case <-time.After(a.pollInterval):
		}
	}
}

// expired resolves a Read whose context is done, converting deadline expiry
// into a reply marked TIMEOUT and cancellation into the context error.
func expired(ctx context.Context, buf []byte) (Reply, error) {
	if ctx.Err() == context.DeadlineExceeded {
		if !utf8.Valid(buf) {
			return nil, errors.Wrapf(ErrDecode, "partial %q", buf)
		}
		return append(tokenize(buf), timeoutMark), nil
	}
	return nil, ctx.Err()
}

// Command issues the command to the modem and returns the framed reply.
//
// The command should NOT include the AT prefix, nor the <CR><LF> suffix,
// which are added automatically. Command never retries; retry policy lives
// in Sync and Reset only.
func (a *AT) Command(ctx context.Context, cmd string) (Reply, error) {
	if err := a.WriteLine("AT" + cmd); err != nil {
		return nil, err
	}
	return a.Read(ctx, "")
}

// WriteLine writes a raw line, with terminator, to the modem without
// awaiting a reply.
//
// It is used for the body phase of an SMS send, where the modem echoes
// rather than returning a result code.
func (a *AT) WriteLine(line string) error {
	_, err := a.modem.Write([]byte(line + crlf))
	return errors.Wrap(err, "write")
}

// WriteCtrlZ writes the single control byte that closes an SMS body prompt.
func (a *AT) WriteCtrlZ() error {
	_, err := a.modem.Write([]byte{sub})
	return errors.Wrap(err, "write")
}

// Sync probes the link until the modem responds coherently.
//
// Each attempt issues the minimal probe command with a short deadline. On
// StatusOK Sync returns. With retry false the first non-OK status is
// returned immediately and the caller decides. With retry true Sync loops
// with a pacing delay until StatusOK or ctx is cancelled. The retry loop is
// intentionally unbounded under context.Background() - a cold-starting
// modem can take seconds to become responsive and no safe fallback exists
// if the link never comes up.
func (a *AT) Sync(ctx context.Context, retry bool) (Status, error) {
	for {
		actx, cancel := context.WithTimeout(ctx, a.syncTimeout)
		reply, err := a.Command(actx, "")
		cancel()
		if err != nil {
			return StatusUnknown, err
		}
		s := reply.Status()
		if s == StatusOK || !retry {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-time.After(a.syncTimeout):
		}
	}
}

// Drain discards any stale bytes buffered in the transport, left over from
// a previous abandoned exchange.
func (a *AT) Drain() {
	chunk := make([]byte, 256)
	for {
		n, _ := a.modem.Read(chunk)
		if n == 0 {
			return
		}
	}
}

// Reset drains stale input and re-probes the link a bounded number of times.
//
// It is called before every GSM operation so leftover bytes from a prior
// command are never attributed to the next one. Reset gives up after a fixed
// number of attempts, returning the last observed status.
func (a *AT) Reset(ctx context.Context) (Status, error) {
	s := StatusUnknown
	for i := 0; i < resetAttempts; i++ {
		a.Drain()
		var err error
		s, err = a.Sync(ctx, false)
		if err != nil || s == StatusOK {
			return s, err
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		default:
		}
	}
	return s, nil
}

// terminated reports whether buf holds a complete reply.
func terminated(buf []byte, stop string) bool {
	if stop != "" && bytes.Contains(buf, []byte(stop)) {
		return true
	}
	for _, t := range terminators {
		if bytes.HasSuffix(buf, t) {
			return true
		}
	}
	return false
}

// tokenize splits a completed reply into its non-empty lines, preserving
// order and stripping stray carriage returns.
func tokenize(buf []byte) Reply {
	lines := strings.Split(string(buf), "\n")
	r := make(Reply, 0, len(lines))
	for _, l := range lines {
		l = strings.ReplaceAll(l, "\r", "")
		if l != "" {
			r = append(r, l)
		}
	}
	return r
}

// validPartial reports whether buf is valid text, tolerating an incomplete
// multi-byte rune still in flight at the end of the buffer.
func validPartial(buf []byte) bool {
	for trim := 0; trim < utf8.UTFMax && trim <= len(buf); trim++ {
		if utf8.Valid(buf[:len(buf)-trim]) {
			return true
		}
	}
	return false
}
