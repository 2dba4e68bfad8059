package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/albenik/go-serial/v2"
	charmlog "github.com/charmbracelet/log"

	"bendsynth/audio"
	"bendsynth/event"
	"bendsynth/synth"
)

func main() {
	portName := flag.String("port", "", "serial port, e.g. /dev/ttyUSB0 (default: first found)")
	baud := flag.Int("baud", 31250, "baud rate (31250 is MIDI wire speed)")
	flag.Parse()

	logger := charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		Level:           charmlog.DebugLevel,
		ReportTimestamp: false,
		Prefix:          "serial-synth",
	})

	name := *portName
	if name == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			logger.Fatal(err)
		}
		if len(ports) == 0 {
			logger.Fatal("no serial ports found")
		}
		for _, p := range ports {
			logger.Info("found port", "name", p)
		}
		name = ports[0]
	}

	port, err := serial.Open(name,
		serial.WithBaudrate(*baud),
		serial.WithDataBits(8),
		serial.WithParity(serial.NoParity),
		serial.WithStopBits(serial.OneStopBit),
	)
	if err != nil {
		logger.Fatal("can't open serial port", "port", name, "err", err)
	}
	port.ResetInputBuffer()
	logger.Info("reading", "port", name)

	out := audio.NewOutput()
	if err := out.Open(); err != nil {
		logger.Fatal("no audio device", "err", err)
	}
	defer out.Close()

	eng := synth.New(out, logger)
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt)
		<-signalCh
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		readLoop(ctx, cancel, port, eng, logger)
	}()
	<-ctx.Done()
	port.Close()
	<-done
	logger.Info("stop")
}

// readLoop frames the raw byte stream into channel messages: a byte with the
// high bit set starts a message, its status nibble fixes how many data bytes
// follow. Running status is honored by keeping the last status byte after a
// complete message.
func readLoop(ctx context.Context, cancel func(), port *serial.Port, eng *synth.Engine, logger *charmlog.Logger) {
	buf := make([]byte, 1)
	msg := make([]byte, 0, 3)
	need := 0
	for {
		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				logger.Error("serial read", "err", err)
			}
			cancel()
			return
		}
		if n == 0 {
			continue
		}
		b := buf[0]
		if b&0x80 != 0 {
			if b >= 0xf0 { // system messages carry no voice data
				msg = msg[:0]
				need = 0
				continue
			}
			msg = append(msg[:0], b)
			need = event.DataBytes(b)
			continue
		}
		if need == 0 { // stray data byte, no status seen yet
			continue
		}
		msg = append(msg, b)
		if len(msg) == 1+need {
			ev, err := event.Decode(msg)
			if err != nil {
				logger.Warn("bad event", "err", err)
			} else {
				logger.Debug(ev.String())
				eng.Apply(ev)
			}
			msg = msg[:1] // keep status for running status
		}
	}
}
