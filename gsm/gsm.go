// Package gsm decorates the AT modem driver with GSM specific operations:
// SIM status and unlock, sending and receiving SMS in text mode, and
// housekeeping such as reboot and message deletion.
package gsm

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/arceryz/atlib/at"
	"github.com/arceryz/atlib/info"
)

// Group selects which stored messages a listing returns.
type Group int

const (
	// GroupUnread selects received messages not yet listed.
	// Listing them marks them read.
	GroupUnread Group = iota

	// GroupRead selects received messages already listed.
	GroupRead

	// GroupStoredUnsent selects stored drafts.
	GroupStoredUnsent

	// GroupStoredSent selects stored sent messages.
	GroupStoredSent

	// GroupAll selects every stored message.
	GroupAll
)

// String returns the modem-defined selector for the group.
func (g Group) String() string {
	switch g {
	case GroupRead:
		return "REC READ"
	case GroupStoredUnsent:
		return "STO UNSENT"
	case GroupStoredSent:
		return "STO SENT"
	case GroupAll:
		return "ALL"
	}
	return "REC UNREAD"
}

// Message is a text message as stored on the modem.
type Message struct {
	// Sender is the originating number, typically in international format.
	Sender string

	// Date is the service centre date stamp, e.g. "21/01/01".
	Date string

	// Time is the time stamp with the timezone offset removed.
	Time string

	// Body is the message text.
	Body string
}

// GSM modem decorates the AT modem with GSM specific functionality.
//
// Every operation first resets the link so stale bytes from an abandoned
// exchange are never attributed to its own commands.
type GSM struct {
	*at.AT
}

// New creates a new GSM modem.
func New(modem io.ReadWriter, options ...at.Option) *GSM {
	return &GSM{at.New(modem, options...)}
}

// SIMStatus reports the lock state of the SIM card.
//
// StatusOK means the SIM is ready for use. StatusSIMPUK means the card is
// locked out and requires the PUK - a terminal state that is surfaced to the
// caller and never retried here.
func (g *GSM) SIMStatus(ctx context.Context) (at.Status, error) {
	if s, err := g.Reset(ctx); err != nil || s != at.StatusOK {
		return s, err
	}
	reply, err := g.Command(ctx, "+CPIN?")
	if err != nil {
		return at.StatusUnknown, err
	}
	if len(reply) < 2 {
		if s := reply.Status(); s == at.StatusTimeout || s == at.StatusError {
			return s, nil
		}
		return at.StatusUnknown, nil
	}
	// second token; the first is the command echo
	switch {
	case strings.Contains(reply[1], "READY"):
		return at.StatusOK, nil
	case strings.Contains(reply[1], "SIM PUK"):
		return at.StatusSIMPUK, nil
	}
	return at.StatusUnknown, nil
}

// UnlockSIM unlocks the SIM card with the given PIN.
//
// If the SIM is already unlocked no PIN is sent. After a successful PIN
// entry UnlockSIM blocks until the modem announces SMS readiness, which can
// legitimately take many seconds; the wait is bounded only by ctx, or by a
// 30 second deadline if ctx carries none.
func (g *GSM) UnlockSIM(ctx context.Context, pin string) (at.Status, error) {
	s, err := g.SIMStatus(ctx)
	if err != nil || s == at.StatusOK || s == at.StatusSIMPUK {
		return s, err
	}
	reply, err := g.Command(ctx, "+CPIN="+pin)
	if err != nil {
		return at.StatusUnknown, err
	}
	if s := reply.Status(); s != at.StatusOK {
		return s, nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	// the ready announcement does not follow the terminator shape
	wait, err := g.Read(ctx, "SMS Ready")
	if err != nil {
		return at.StatusUnknown, err
	}
	if s := wait.Status(); s == at.StatusTimeout {
		return s, nil
	}
	return at.StatusOK, nil
}

// SendSMS sends a text message to the number.
//
// The exchange has three phases: select text mode, open the addressed send
// prompt, then write the body and the terminating control byte. Any phase
// returning an unexpected status aborts the whole operation and that status
// is returned - an aborted send is never compensated.
func (g *GSM) SendSMS(ctx context.Context, number, body string) (at.Status, error) {
	if s, err := g.Reset(ctx); err != nil || s != at.StatusOK {
		return s, err
	}
	s, err := g.command(ctx, "+CMGF=1")
	if err != nil || s != at.StatusOK {
		return s, err
	}
	s, err = g.command(ctx, "+CMGS=\""+number+"\"")
	if err != nil || s != at.StatusPrompt {
		return s, err
	}
	if err := g.WriteLine(body); err != nil {
		return at.StatusUnknown, err
	}
	// the modem merely echoes the body and re-opens the prompt
	if _, err := g.Read(ctx, ""); err != nil {
		return at.StatusUnknown, err
	}
	if err := g.WriteCtrlZ(); err != nil {
		return at.StatusUnknown, err
	}
	reply, err := g.Read(ctx, "")
	if err != nil {
		return at.StatusUnknown, err
	}
	return reply.Status(), nil
}

// ReceiveSMS lists the stored messages selected by group.
//
// A reply that does not end in OK is surfaced as an at.ModemError. A
// malformed header fails that single record, which is skipped; the rest of
// the listing is still returned.
func (g *GSM) ReceiveSMS(ctx context.Context, group Group) ([]Message, error) {
	if s, err := g.Reset(ctx); err != nil {
		return nil, err
	} else if s != at.StatusOK {
		return nil, at.ModemError(s)
	}
	s, err := g.command(ctx, "+CMGF=1")
	if err != nil {
		return nil, err
	}
	if s != at.StatusOK {
		return nil, at.ModemError(s)
	}
	reply, err := g.Command(ctx, "+CMGL=\""+group.String()+"\"")
	if err != nil {
		return nil, err
	}
	if s := reply.Status(); s != at.StatusOK {
		return nil, at.ModemError(s)
	}
	// excluding the echo and the status, messages are header/body pairs
	var msgs []Message
	for i := 1; i+1 < len(reply)-1; i += 2 {
		m, err := parseHeader(reply[i])
		if err != nil {
			continue
		}
		m.Body = reply[i+1]
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// AwaitSMS polls for messages in the group until at least one arrives or
// timeout elapses, sleeping poll between empty listings.
//
// An empty result on timeout is a normal outcome, not a failure.
func (g *GSM) AwaitSMS(ctx context.Context, group Group, poll, timeout time.Duration) ([]Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		msgs, err := g.ReceiveSMS(ctx, group)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(poll):
		}
	}
}

// Reboot restarts the modem.
func (g *GSM) Reboot(ctx context.Context) (at.Status, error) {
	if s, err := g.Reset(ctx); err != nil || s != at.StatusOK {
		return s, err
	}
	return g.command(ctx, "+CFUN=1,1")
}

// Delete removes the stored message at index.
//
// Indices are 0-based positions in the listing of all messages; the device
// itself indexes from 1.
func (g *GSM) Delete(ctx context.Context, index int) (at.Status, error) {
	if s, err := g.Reset(ctx); err != nil || s != at.StatusOK {
		return s, err
	}
	return g.command(ctx, "+CMGD="+strconv.Itoa(index+1))
}

// DeleteRead removes all messages except unread ones, including drafts.
func (g *GSM) DeleteRead(ctx context.Context) (at.Status, error) {
	if s, err := g.Reset(ctx); err != nil || s != at.StatusOK {
		return s, err
	}
	return g.command(ctx, "+CMGD=1,3")
}

// command issues cmd and classifies the reply.
func (g *GSM) command(ctx context.Context, cmd string) (at.Status, error) {
	reply, err := g.Command(ctx, cmd)
	if err != nil {
		return at.StatusUnknown, err
	}
	return reply.Status(), nil
}

// parseHeader extracts the message fields from a +CMGL header line.
//
// The header is a comma-delimited row; sender, date and time sit in fixed
// positions and the time carries a timezone offset after a '+' marker.
func parseHeader(line string) (Message, error) {
	if !info.HasPrefix(line, "+CMGL") {
		return Message{}, info.ErrMalformed
	}
	fields := info.Fields(line)
	if len(fields) < 6 {
		return Message{}, info.ErrMalformed
	}
	return Message{
		Sender: info.Unquote(fields[2]),
		Date:   info.Unquote(fields[4]),
		Time:   info.Unquote(strings.SplitN(fields[5], "+", 2)[0]),
	}, nil
}
