package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"bendsynth/synth"
)

const sampleRate = beep.SampleRate(48000)

var ErrClosed = errors.New("audio output not open")

// Output is the speaker-backed tone sink. One beep mixer is played for the
// lifetime of the output; every acquired tone is a generator added to it.
type Output struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	opened bool
}

func NewOutput() *Output {
	return &Output{mixer: &beep.Mixer{}}
}

// Open initializes the speaker. Failure here means no audio device is
// available; callers treat it as fatal at startup.
func (o *Output) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.opened {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*50)); err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	speaker.Play(o.mixer)
	o.opened = true
	return nil
}

// Close silences everything. beep has no speaker teardown; clearing the
// mixer is enough to stop all sound.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.opened {
		return
	}
	speaker.Lock()
	o.mixer.Clear()
	speaker.Unlock()
	o.opened = false
}

// Acquire starts a sustained sine tone at freq and returns its handle.
func (o *Output) Acquire(freq float64) (synth.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.opened {
		return nil, ErrClosed
	}
	gen := newToneGenerator(sampleRate, freq)
	speaker.Lock()
	o.mixer.Add(gen)
	speaker.Unlock()
	return &Tone{gen: gen}, nil
}

// Tone is one sounding sine voice.
type Tone struct {
	gen *toneGenerator
}

// Retune changes the tone's frequency under the speaker lock. The generator
// keeps its phase, so the switch is click-free and leaves no audible gap.
func (t *Tone) Retune(freq float64) {
	speaker.Lock()
	t.gen.freq = freq
	speaker.Unlock()
}

// Release stops the tone; the mixer drops the drained generator.
func (t *Tone) Release() {
	speaker.Lock()
	t.gen.done = true
	speaker.Unlock()
}
