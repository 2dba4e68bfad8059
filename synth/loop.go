package synth

import (
	"context"
	"errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"bendsynth/event"
)

// Run listens on a MIDI input port and applies each incoming message to the
// engine, in arrival order, from a single goroutine. The driver callback only
// copies the raw bytes onto a buffered channel so it never blocks; a full
// queue drops the event with a warning. Run returns when ctx is cancelled,
// releasing all voices.
func Run(ctx context.Context, in drivers.In, eng *Engine) error {
	logger := charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		Level:           charmlog.DebugLevel,
		ReportTimestamp: false,
		Prefix:          "synth",
	})
	logger.Info("listening", "input", in.String())

	raw := make(chan []byte, 128)
	stop, err := midi.ListenTo(in, func(msg midi.Message, absms int32) {
		buf := make([]byte, len(msg))
		copy(buf, msg)
		select {
		case raw <- buf:
		default:
			logger.Warn("event queue full, dropped", "len", len(msg))
		}
	})
	if err != nil {
		return fmt.Errorf("listen on %s: %w", in.String(), err)
	}
	defer eng.Close()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stop")
			return nil
		case buf := <-raw:
			ev, err := event.Decode(buf)
			if err != nil {
				if !errors.Is(err, event.ErrNoEvent) {
					logger.Warn("bad event", "err", err)
				}
				continue
			}
			logger.Debug(ev.String(), "len", len(buf))
			eng.Apply(ev)
		}
	}
}
