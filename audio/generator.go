package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// toneGain keeps a handful of simultaneous voices below clipping.
const toneGain = 0.2

// toneGenerator streams an endless sine wave. freq may be changed between
// Stream calls (under the speaker lock); the phase accumulator carries over
// so a retune does not click.
type toneGenerator struct {
	sr    beep.SampleRate
	freq  float64
	phase float64 // 0-1
	done  bool
}

func newToneGenerator(sr beep.SampleRate, freq float64) *toneGenerator {
	return &toneGenerator{sr: sr, freq: freq}
}

func (g *toneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	if g.done {
		return 0, false
	}
	for i := range samples {
		s := toneGain * math.Sin(2*math.Pi*g.phase)
		samples[i][0] = s
		samples[i][1] = s
		g.phase += g.freq / float64(g.sr)
		if g.phase >= 1.0 {
			g.phase -= 1.0
		}
	}
	return len(samples), true
}

func (g *toneGenerator) Err() error {
	return nil
}
