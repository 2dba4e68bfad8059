package event

import (
	"errors"
	"fmt"
)

// Kind classifies a raw MIDI channel message by the high nibble of its
// status byte.
type Kind int

const (
	NoteOff Kind = iota
	NoteOn
	PolyPressure
	ControlChange
	ProgramChange
	ChannelPressure
	PitchBend
	Unknown
)

func (k Kind) String() string {
	switch k {
	case NoteOff:
		return "NoteOff"
	case NoteOn:
		return "NoteOn"
	case PolyPressure:
		return "PolyPressure"
	case ControlChange:
		return "ControlChange"
	case ProgramChange:
		return "ProgramChange"
	case ChannelPressure:
		return "ChannelPressure"
	case PitchBend:
		return "PitchBend"
	default:
		return "Unknown"
	}
}

var (
	// ErrNoEvent is returned for empty input, which is not a decoding error:
	// callers log it as a no-op and move on.
	ErrNoEvent = errors.New("empty MIDI message")
	// ErrInvalidEvent is returned when a status byte claims more data bytes
	// than the message carries.
	ErrInvalidEvent = errors.New("truncated MIDI message")
)

// Event is a classified MIDI channel message. Note doubles as the controller
// number for ControlChange and the program number for ProgramChange; Velocity
// doubles as the pressure or controller value.
type Event struct {
	Kind     Kind
	Channel  uint8
	Note     uint8
	Velocity uint8
	Bend     uint16 // 0..16383, center 8192
}

func (ev Event) String() string {
	switch ev.Kind {
	case NoteOff, NoteOn:
		return fmt.Sprintf("%s: channel=%d, note=%d, velocity=%d", ev.Kind, ev.Channel, ev.Note, ev.Velocity)
	case PolyPressure:
		return fmt.Sprintf("%s: channel=%d, note=%d, pressure=%d", ev.Kind, ev.Channel, ev.Note, ev.Velocity)
	case ControlChange:
		return fmt.Sprintf("%s: channel=%d, controller=%d, value=%d", ev.Kind, ev.Channel, ev.Note, ev.Velocity)
	case ProgramChange:
		return fmt.Sprintf("%s: channel=%d, program=%d", ev.Kind, ev.Channel, ev.Note)
	case ChannelPressure:
		return fmt.Sprintf("%s: channel=%d, pressure=%d", ev.Kind, ev.Channel, ev.Velocity)
	case PitchBend:
		return fmt.Sprintf("%s: channel=%d, value=%d", ev.Kind, ev.Channel, ev.Bend)
	default:
		return "Unknown message"
	}
}

// Decode classifies a raw 1-3 byte MIDI message. A NoteOn with velocity 0 is
// kept as NoteOn, it is not folded into NoteOff.
func Decode(raw []byte) (Event, error) {
	if len(raw) == 0 {
		return Event{}, ErrNoEvent
	}
	kind := classify(raw[0])
	if kind == Unknown {
		return Event{Kind: Unknown}, nil
	}
	ev := Event{Kind: kind, Channel: raw[0] & 0x0f}
	if len(raw) < 1+DataBytes(raw[0]) {
		return Event{}, fmt.Errorf("%w: % X", ErrInvalidEvent, raw)
	}
	switch kind {
	case NoteOff, NoteOn, PolyPressure, ControlChange:
		ev.Note = raw[1]
		ev.Velocity = raw[2]
	case ProgramChange:
		ev.Note = raw[1]
	case ChannelPressure:
		ev.Velocity = raw[1]
	case PitchBend:
		// 14-bit value, LSB first
		ev.Bend = uint16(raw[2])<<7 | uint16(raw[1])
	}
	return ev, nil
}

func classify(status uint8) Kind {
	switch status & 0xf0 {
	case 0x80:
		return NoteOff
	case 0x90:
		return NoteOn
	case 0xa0:
		return PolyPressure
	case 0xb0:
		return ControlChange
	case 0xc0:
		return ProgramChange
	case 0xd0:
		return ChannelPressure
	case 0xe0:
		return PitchBend
	default:
		return Unknown
	}
}

// DataBytes returns how many data bytes follow the given status byte.
// System messages (0xF0 and up) are not channel events and report 0.
func DataBytes(status uint8) int {
	switch status & 0xf0 {
	case 0xc0, 0xd0:
		return 1
	case 0xf0:
		return 0
	default:
		return 2
	}
}
