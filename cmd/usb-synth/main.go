package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"bendsynth/audio"
	"bendsynth/synth"
)

func main() {
	inPort := flag.String("input", "", "MIDI input port name (default: first available)")
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	logger := charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		Level:           charmlog.InfoLevel,
		ReportTimestamp: false,
		Prefix:          "usb-synth",
	})

	cfg := LoadConfig(*configFile, logger)
	if *inPort != "" {
		cfg.Input = *inPort
	}
	if cfg.Debug {
		logger.SetLevel(charmlog.DebugLevel)
	}

	defer midi.CloseDriver()

	in, err := openInput(cfg.Input)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Info("opening connection", "port", in.String())

	out := audio.NewOutput()
	if err := out.Open(); err != nil {
		logger.Fatal("no audio device", "err", err)
	}
	defer out.Close()

	eng := synth.New(out, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt)
		<-signalCh
		cancel()
	}()
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		cancel()
	}()

	logger.Info("connection open, press Enter to exit")
	if err := synth.Run(ctx, in, eng); err != nil {
		logger.Fatal(err)
	}
	logger.Info("closing connection")
}

func openInput(name string) (drivers.In, error) {
	if name != "" {
		return midi.FindInPort(name)
	}
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, errors.New("no available MIDI input ports")
	}
	return ins[0], nil
}
