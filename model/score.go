package model

import (
	"fmt"

	"github.com/pkg/errors"
)

type Metadata struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty" cbor:"id,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty" cbor:"title,omitempty"`
	Composer string `json:"composer,omitempty" yaml:"composer,omitempty" cbor:"composer,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty" cbor:"source,omitempty"`
}

type Settings struct {
	// ticks per quarter note, shared by every part
	TicksPerQuarter int `json:"ticks_per_quarter" yaml:"ticks_per_quarter" cbor:"ticks_per_quarter"`
}

type Score struct {
	Metadata       Metadata        `json:"metadata" yaml:"metadata" cbor:"metadata"`
	Settings       Settings        `json:"settings" yaml:"settings" cbor:"settings"`
	Parts          []*Part         `json:"parts" yaml:"parts" cbor:"parts"`
	TimeSignatures []TimeSignature `json:"time_signatures" yaml:"time_signatures" cbor:"time_signatures"`
	Tempos         []Tempo         `json:"tempos" yaml:"tempos" cbor:"tempos"`
	KeyCenters     []KeyCenter     `json:"key_centers" yaml:"key_centers" cbor:"key_centers"`
}

type Part struct {
	ID     string  `json:"id" yaml:"id" cbor:"id"`
	Name   string  `json:"name" yaml:"name" cbor:"name"`
	Events []Event `json:"events" yaml:"events" cbor:"events"`
}

// Event is a sounding note or, when Rest is set, a silent span.
type Event struct {
	Onset        int    `json:"onset" yaml:"onset" cbor:"onset"`
	Duration     int    `json:"duration" yaml:"duration" cbor:"duration"`
	Pitch        uint8  `json:"pitch,omitempty" yaml:"pitch,omitempty" cbor:"pitch,omitempty"`
	Velocity     uint8  `json:"velocity,omitempty" yaml:"velocity,omitempty" cbor:"velocity,omitempty"`
	Voice        int    `json:"voice" yaml:"voice" cbor:"voice"`
	Articulation string `json:"articulation,omitempty" yaml:"articulation,omitempty" cbor:"articulation,omitempty"`
	Rest         bool   `json:"rest,omitempty" yaml:"rest,omitempty" cbor:"rest,omitempty"`
}

func (e Event) End() int {
	return e.Onset + e.Duration
}

// Note is the unvalidated input to AddNote.
type Note struct {
	Onset        int
	Duration     int
	Pitch        int
	Velocity     int
	Voice        int
	Articulation string
}

type TimeSignature struct {
	Tick        int `json:"tick" yaml:"tick" cbor:"tick"`
	Numerator   int `json:"numerator" yaml:"numerator" cbor:"numerator"`
	Denominator int `json:"denominator" yaml:"denominator" cbor:"denominator"`
}

type Tempo struct {
	Tick int     `json:"tick" yaml:"tick" cbor:"tick"`
	BPM  float64 `json:"bpm" yaml:"bpm" cbor:"bpm"`
}

type KeyCenter struct {
	Tick   int    `json:"tick" yaml:"tick" cbor:"tick"`
	Fifths int    `json:"fifths" yaml:"fifths" cbor:"fifths"`
	Mode   string `json:"mode" yaml:"mode" cbor:"mode"`
	// pitch class of the tonic, 0 = C
	Tonic int `json:"tonic" yaml:"tonic" cbor:"tonic"`
}

type Warning struct {
	MeasureNumber string `json:"measure_number" yaml:"measure_number" cbor:"measure_number"`
	PartID        string `json:"part_id" yaml:"part_id" cbor:"part_id"`
	Message       string `json:"message" yaml:"message" cbor:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("part %s, measure %s: %s", w.PartID, w.MeasureNumber, w.Message)
}

type ValidationError struct {
	Field string
	Value int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %d", e.Field, e.Value)
}

func NewScore(meta Metadata, settings Settings) *Score {
	if settings.TicksPerQuarter <= 0 {
		settings.TicksPerQuarter = 1
	}
	return &Score{Metadata: meta, Settings: settings}
}

func (s *Score) AddPart(id, name string) *Part {
	p := &Part{ID: id, Name: name}
	s.Parts = append(s.Parts, p)
	return p
}

func (s *Score) PartByID(id string) *Part {
	for _, p := range s.Parts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Score) AppendTimeSignature(ts TimeSignature) error {
	if ts.Tick < 0 {
		return errors.WithStack(&ValidationError{Field: "time signature tick", Value: ts.Tick})
	}
	s.TimeSignatures = append(s.TimeSignatures, ts)
	return nil
}

func (s *Score) AppendTempo(t Tempo) error {
	if t.Tick < 0 {
		return errors.WithStack(&ValidationError{Field: "tempo tick", Value: t.Tick})
	}
	s.Tempos = append(s.Tempos, t)
	return nil
}

func (s *Score) AppendKeyCenter(k KeyCenter) error {
	if k.Tick < 0 {
		return errors.WithStack(&ValidationError{Field: "key center tick", Value: k.Tick})
	}
	s.KeyCenters = append(s.KeyCenters, k)
	return nil
}

// Length is the tick at which the last event of any part ends.
func (s *Score) Length() int {
	var end int
	for _, p := range s.Parts {
		for _, e := range p.Events {
			if e.End() > end {
				end = e.End()
			}
		}
	}
	return end
}

func (s *Score) NoteCount() int {
	var n int
	for _, p := range s.Parts {
		n += len(p.Notes())
	}
	return n
}

func (p *Part) AddNote(n Note) error {
	switch {
	case n.Pitch < 0 || n.Pitch > 127:
		return errors.WithStack(&ValidationError{Field: "pitch", Value: n.Pitch})
	case n.Velocity < 0 || n.Velocity > 127:
		return errors.WithStack(&ValidationError{Field: "velocity", Value: n.Velocity})
	case n.Duration < 1:
		return errors.WithStack(&ValidationError{Field: "duration", Value: n.Duration})
	case n.Onset < 0:
		return errors.WithStack(&ValidationError{Field: "onset", Value: n.Onset})
	case n.Voice < 0:
		return errors.WithStack(&ValidationError{Field: "voice", Value: n.Voice})
	}
	p.Events = append(p.Events, Event{
		Onset:        n.Onset,
		Duration:     n.Duration,
		Pitch:        uint8(n.Pitch),
		Velocity:     uint8(n.Velocity),
		Voice:        n.Voice,
		Articulation: n.Articulation,
	})
	return nil
}

func (p *Part) AddRest(onset, duration, voice int) error {
	switch {
	case duration < 1:
		return errors.WithStack(&ValidationError{Field: "duration", Value: duration})
	case onset < 0:
		return errors.WithStack(&ValidationError{Field: "onset", Value: onset})
	case voice < 0:
		return errors.WithStack(&ValidationError{Field: "voice", Value: voice})
	}
	p.Events = append(p.Events, Event{Onset: onset, Duration: duration, Voice: voice, Rest: true})
	return nil
}

// Notes returns the sounding events of the part, in emission order.
func (p *Part) Notes() []Event {
	var res []Event
	for _, e := range p.Events {
		if !e.Rest {
			res = append(res, e)
		}
	}
	return res
}
