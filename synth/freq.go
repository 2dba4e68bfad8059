package synth

import "math"

// MaxBendSemitones is the pitch range covered by a full bend deflection.
const MaxBendSemitones = 2.0

// noteFrequencies holds precomputed frequencies for MIDI notes 0-127,
// equal temperament with A4 (note 69) at 440Hz.
var noteFrequencies [128]float64

func init() {
	for i := range noteFrequencies {
		noteFrequencies[i] = 440.0 * math.Exp2((float64(i)-69.0)/12.0)
	}
}

// NoteFrequency returns the zero-bend frequency in Hz for a MIDI note number.
func NoteFrequency(note uint8) float64 {
	if note > 127 {
		return 0
	}
	return noteFrequencies[note]
}

// Bend scales base by the pitch-bend offset. offset is the signed deviation
// from bend center, [-8192, 8191]; full deflection is MaxBendSemitones.
func Bend(base float64, offset int16) float64 {
	semitones := float64(offset) / 8192.0 * MaxBendSemitones
	return base * math.Exp2(semitones/12.0)
}
