package synth

import (
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"

	"bendsynth/event"
)

// Handle is one continuous tone owned by the engine. It keeps sounding until
// Release is called.
type Handle interface {
	Retune(freq float64)
	Release()
}

// Sink hands out tone handles. Acquire may fail when the audio device is
// exhausted or unavailable; the engine treats that as a per-note failure.
type Sink interface {
	Acquire(freq float64) (Handle, error)
}

type voice struct {
	note     uint8
	baseFreq float64 // pitch at zero bend, fixed for the voice's lifetime
	handle   Handle
}

// Engine holds the currently sounding voices, one per note, and the global
// pitch-bend offset applied to all of them. Its methods must be called from a
// single goroutine; Run provides that serialization.
type Engine struct {
	sink   Sink
	voices map[uint8]*voice
	bend   int16 // signed offset from bend center, [-8192, 8191]
	logger *charmlog.Logger
}

func New(sink Sink, logger *charmlog.Logger) *Engine {
	if logger == nil {
		logger = charmlog.New(io.Discard)
	}
	return &Engine{
		sink:   sink,
		voices: map[uint8]*voice{},
		logger: logger,
	}
}

// NoteOn starts a sustained tone for note at the current bend. A note that is
// already sounding is replaced: its old handle is released first, so there is
// never more than one handle per note. Velocity is accepted but does not
// shape amplitude.
func (e *Engine) NoteOn(note, velocity uint8) error {
	if old, ok := e.voices[note]; ok {
		old.handle.Release()
		delete(e.voices, note)
	}
	base := NoteFrequency(note)
	handle, err := e.sink.Acquire(Bend(base, e.bend))
	if err != nil {
		return fmt.Errorf("note %d: %w", note, err)
	}
	e.voices[note] = &voice{note: note, baseFreq: base, handle: handle}
	return nil
}

// NoteOff releases the voice for note. Releasing a note that is not sounding
// is a no-op.
func (e *Engine) NoteOff(note uint8) {
	if v, ok := e.voices[note]; ok {
		v.handle.Release()
		delete(e.voices, note)
	}
}

// PitchBend stores the new bend offset and retunes every live voice to it.
// value is the raw 14-bit encoding, 8192 = center.
func (e *Engine) PitchBend(value uint16) {
	e.bend = int16(int32(value) - 8192)
	for _, v := range e.voices {
		v.handle.Retune(Bend(v.baseFreq, e.bend))
	}
}

// Apply dispatches a classified event. Recognized kinds the engine does not
// act on (pressure, control change, program change) leave state untouched.
// No event may take the process down: a failed note is logged and dropped.
func (e *Engine) Apply(ev event.Event) {
	switch ev.Kind {
	case event.NoteOn:
		if err := e.NoteOn(ev.Note, ev.Velocity); err != nil {
			e.logger.Warn("voice unavailable", "note", ev.Note, "err", err)
		}
	case event.NoteOff:
		e.NoteOff(ev.Note)
	case event.PitchBend:
		e.PitchBend(ev.Bend)
	}
}

// Close releases every remaining voice.
func (e *Engine) Close() {
	for note, v := range e.voices {
		v.handle.Release()
		delete(e.voices, note)
	}
}
