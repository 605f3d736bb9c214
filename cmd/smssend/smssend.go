// smssend sends a single text message through an AT modem on a serial port.
//
// The SIM is unlocked first when a PIN is supplied.
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
	num := flag.String("n", "", "number to send to, in international format")
	msg := flag.String("m", "", "the message to send")
	pin := flag.String("p", "", "SIM PIN, if the SIM is locked")
	timeout := flag.Duration("t", time.Minute, "overall timeout")
	verbose := flag.Bool("v", false, "log modem reads and writes")
	flag.Parse()

	log := logrus.New()
	if *num == "" || *msg == "" {
		log.Fatal("both -n and -m are required")
	}
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
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if s, err := g.Sync(ctx, true); err != nil {
		log.Fatalf("sync: %v (%v)", err, s)
	}
	if *pin != "" {
		s, err := g.UnlockSIM(ctx, *pin)
		if err != nil {
			log.Fatal(err)
		}
		if s != at.StatusOK {
			log.Fatalf("unlock SIM: %v", s)
		}
	}
	s, err := g.SendSMS(ctx, *num, *msg)
	if err != nil {
		log.Fatal(err)
	}
	if s != at.StatusOK {
		log.Fatalf("send: %v", s)
	}
	log.Infof("sent %q to %s", *msg, *num)
}
