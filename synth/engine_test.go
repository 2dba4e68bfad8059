package synth

import (
	"errors"
	"math"
	"testing"

	"bendsynth/event"
)

type fakeHandle struct {
	freq     float64
	retunes  int
	released bool
}

func (h *fakeHandle) Retune(freq float64) {
	h.freq = freq
	h.retunes++
}

func (h *fakeHandle) Release() {
	h.released = true
}

type fakeSink struct {
	handles []*fakeHandle
	fail    bool
}

func (s *fakeSink) Acquire(freq float64) (Handle, error) {
	if s.fail {
		return nil, errors.New("sink exhausted")
	}
	h := &fakeHandle{freq: freq}
	s.handles = append(s.handles, h)
	return h, nil
}

func newTestEngine() (*Engine, *fakeSink) {
	sink := &fakeSink{}
	return New(sink, nil), sink
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestNoteOffIdempotent covers the no-op semantics of redundant note off.
func TestNoteOffIdempotent(t *testing.T) {
	eng, sink := newTestEngine()
	if err := eng.NoteOn(60, 100); err != nil {
		t.Fatal(err)
	}
	eng.NoteOff(60)
	eng.NoteOff(60) // must not panic or error
	eng.NoteOff(99) // never sounded, also a no-op

	if len(eng.voices) != 0 {
		t.Errorf("voices = %d, want 0", len(eng.voices))
	}
	if !sink.handles[0].released {
		t.Error("handle not released on note off")
	}
}

// TestNoteOnReplacesVoice verifies the at-most-one-voice-per-note invariant:
// a second note on for the same note releases the old handle first.
func TestNoteOnReplacesVoice(t *testing.T) {
	eng, sink := newTestEngine()
	if err := eng.NoteOn(60, 100); err != nil {
		t.Fatal(err)
	}
	if err := eng.NoteOn(60, 50); err != nil {
		t.Fatal(err)
	}

	if len(eng.voices) != 1 {
		t.Fatalf("voices = %d, want 1", len(eng.voices))
	}
	if len(sink.handles) != 2 {
		t.Fatalf("acquired = %d, want 2", len(sink.handles))
	}
	if !sink.handles[0].released {
		t.Error("replaced handle not released")
	}
	if sink.handles[1].released {
		t.Error("live handle released")
	}
}

// TestPitchBendPropagation: half of the max upward bend is exactly one
// semitone, and recentering restores the exact base frequency.
func TestPitchBendPropagation(t *testing.T) {
	eng, sink := newTestEngine()
	if err := eng.NoteOn(60, 100); err != nil {
		t.Fatal(err)
	}
	if err := eng.NoteOn(64, 100); err != nil {
		t.Fatal(err)
	}

	eng.PitchBend(8192 + 4096)
	semitone := math.Exp2(1.0 / 12.0)
	for i, note := range []uint8{60, 64} {
		want := NoteFrequency(note) * semitone
		if got := sink.handles[i].freq; !closeEnough(got, want) {
			t.Errorf("note %d bent freq = %v, want %v", note, got, want)
		}
	}

	eng.PitchBend(8192)
	for i, note := range []uint8{60, 64} {
		if got := sink.handles[i].freq; got != NoteFrequency(note) {
			t.Errorf("note %d recentered freq = %v, want exact %v", note, got, NoteFrequency(note))
		}
	}
}

// TestBendBeforeNote: a voice created while a bend is in effect must start
// at the bent frequency, never at the unbent base.
func TestBendBeforeNote(t *testing.T) {
	eng, sink := newTestEngine()
	eng.PitchBend(8192 + 4096)
	if err := eng.NoteOn(69, 100); err != nil {
		t.Fatal(err)
	}

	want := 440.0 * math.Exp2(1.0/12.0)
	if got := sink.handles[0].freq; !closeEnough(got, want) {
		t.Errorf("initial freq = %v, want %v", got, want)
	}
}

// TestEventSequence plays through a full scenario: two notes, max bend,
// one release, recenter.
func TestEventSequence(t *testing.T) {
	eng, sink := newTestEngine()
	if err := eng.NoteOn(60, 100); err != nil {
		t.Fatal(err)
	}
	if err := eng.NoteOn(64, 100); err != nil {
		t.Fatal(err)
	}
	eng.PitchBend(16383)
	eng.NoteOff(60)
	eng.PitchBend(8192)

	if len(eng.voices) != 1 {
		t.Fatalf("voices = %d, want 1", len(eng.voices))
	}
	if _, ok := eng.voices[64]; !ok {
		t.Fatal("voice 64 missing")
	}
	if !sink.handles[0].released {
		t.Error("voice 60 not released")
	}
	if got := sink.handles[1].freq; got != NoteFrequency(64) {
		t.Errorf("voice 64 freq = %v, want exact base %v", got, NoteFrequency(64))
	}
}

// TestSinkFailure: a note that cannot get a render resource fails alone,
// other voices keep sounding and the engine stays usable.
func TestSinkFailure(t *testing.T) {
	sink := &fakeSink{}
	eng := New(sink, nil)
	if err := eng.NoteOn(60, 100); err != nil {
		t.Fatal(err)
	}

	sink.fail = true
	if err := eng.NoteOn(64, 100); err == nil {
		t.Fatal("expected error from exhausted sink")
	}
	if len(eng.voices) != 1 {
		t.Errorf("voices = %d, want 1", len(eng.voices))
	}
	if sink.handles[0].released {
		t.Error("unrelated voice released after failed note on")
	}

	sink.fail = false
	if err := eng.NoteOn(64, 100); err != nil {
		t.Errorf("engine unusable after failure: %v", err)
	}
}

// TestApplyIgnoredKinds: recognized-but-unacted kinds must not touch state.
func TestApplyIgnoredKinds(t *testing.T) {
	eng, sink := newTestEngine()
	eng.Apply(event.Event{Kind: event.NoteOn, Note: 60, Velocity: 100})

	for _, kind := range []event.Kind{
		event.PolyPressure,
		event.ControlChange,
		event.ProgramChange,
		event.ChannelPressure,
		event.Unknown,
	} {
		eng.Apply(event.Event{Kind: kind, Note: 60, Velocity: 7})
	}

	if len(eng.voices) != 1 {
		t.Errorf("voices = %d, want 1", len(eng.voices))
	}
	if eng.bend != 0 {
		t.Errorf("bend = %d, want 0", eng.bend)
	}
	if sink.handles[0].retunes != 0 {
		t.Errorf("retunes = %d, want 0", sink.handles[0].retunes)
	}
}

// TestApplyZeroVelocityNoteOn: velocity 0 still creates a voice, matching
// the decoder's refusal to fold it into note off.
func TestApplyZeroVelocityNoteOn(t *testing.T) {
	eng, _ := newTestEngine()
	eng.Apply(event.Event{Kind: event.NoteOn, Note: 60, Velocity: 0})
	if len(eng.voices) != 1 {
		t.Errorf("voices = %d, want 1", len(eng.voices))
	}
}

// TestClose releases every remaining handle.
func TestClose(t *testing.T) {
	eng, sink := newTestEngine()
	for _, note := range []uint8{60, 64, 67} {
		if err := eng.NoteOn(note, 100); err != nil {
			t.Fatal(err)
		}
	}
	eng.Close()

	if len(eng.voices) != 0 {
		t.Errorf("voices = %d, want 0", len(eng.voices))
	}
	for i, h := range sink.handles {
		if !h.released {
			t.Errorf("handle %d not released on close", i)
		}
	}
}
