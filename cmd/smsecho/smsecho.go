// smsecho is an SMS echo server: it waits for incoming messages and replies
// to each sender with the same body.
package main

import (
	"context"
	"flag"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arceryz/atlib/at"
	"github.com/arceryz/atlib/gsm"
	"github.com/arceryz/atlib/serial"
	"github.com/arceryz/atlib/trace"
)

func main() {
	def := serial.Default()
	dev := flag.String("d", def.Port, "path to modem device")
	baud := flag.Int("b", def.Baud, "baud rate")
	pin := flag.String("p", "", "SIM PIN, if the SIM is locked")
	poll := flag.Duration("i", 5*time.Second, "poll interval between mailbox scans")
	wait := flag.Duration("w", 100*time.Second, "how long each scan waits for a message")
	purge := flag.Bool("purge", false, "delete read messages after echoing")
	verbose := flag.Bool("v", false, "log modem reads and writes")
	flag.Parse()

	log := logrus.New()
	m, err := serial.New(*dev, *baud)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()
	var mio io.ReadWriter = m
	if *verbose {
		mio = trace.New(m, trace.WithLogger(log))
	}
	g := gsm.New(mio)
	ctx := context.Background()

	if s, err := g.Sync(ctx, true); err != nil {
		log.Fatalf("sync: %v (%v)", err, s)
	}
	if s, err := g.SIMStatus(ctx); err != nil || s != at.StatusOK {
		if *pin == "" {
			log.Fatalf("SIM not ready: %v (%v)", s, err)
		}
		s, err = g.UnlockSIM(ctx, *pin)
		if err != nil || s != at.StatusOK {
			log.Fatalf("unlock SIM: %v (%v)", s, err)
		}
	}
	log.Info("awaiting messages")
	for {
		msgs, err := g.AwaitSMS(ctx, gsm.GroupUnread, *poll, *wait)
		if err != nil {
			log.Error(err)
			continue
		}
		for _, msg := range msgs {
			log.Infof("%s: %s", msg.Sender, msg.Body)
			s, err := g.SendSMS(ctx, msg.Sender, "ECHO: "+msg.Body)
			if err != nil || s != at.StatusOK {
				log.Errorf("echo to %s: %v (%v)", msg.Sender, s, err)
			}
		}
		if *purge && len(msgs) > 0 {
			if s, err := g.DeleteRead(ctx); err != nil || s != at.StatusOK {
				log.Errorf("purge: %v (%v)", s, err)
			}
		}
	}
}
