package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAddNoteValidates(t *testing.T) {
	cases := []struct {
		name  string
		note  Note
		field string
	}{
		{"pitch too high", Note{Pitch: 128, Velocity: 64, Duration: 1}, "pitch"},
		{"negative pitch", Note{Pitch: -1, Velocity: 64, Duration: 1}, "pitch"},
		{"velocity", Note{Pitch: 60, Velocity: 200, Duration: 1}, "velocity"},
		{"zero duration", Note{Pitch: 60, Velocity: 64, Duration: 0}, "duration"},
		{"negative onset", Note{Pitch: 60, Velocity: 64, Duration: 4, Onset: -1}, "onset"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var p Part
			err := p.AddNote(c.note)
			var verr *ValidationError
			if assert.True(t, errors.As(err, &verr)) {
				assert.Equal(t, c.field, verr.Field)
			}
			assert.Empty(t, p.Events)
		})
	}
}

func TestAddNoteAndRest(t *testing.T) {
	s := NewScore(Metadata{Title: "t"}, Settings{TicksPerQuarter: 4})
	p := s.AddPart("P1", "Piano")
	assert := assert.New(t)
	assert.NoError(p.AddNote(Note{Onset: 0, Duration: 4, Pitch: 60, Velocity: 64}))
	assert.NoError(p.AddRest(4, 4, 0))
	assert.NoError(p.AddNote(Note{Onset: 8, Duration: 2, Pitch: 62, Velocity: 64, Articulation: "staccato"}))

	assert.Len(p.Events, 3)
	assert.Len(p.Notes(), 2)
	assert.Equal(10, s.Length())
	assert.Equal(2, s.NoteCount())
	assert.Same(p, s.PartByID("P1"))
	assert.Nil(s.PartByID("P2"))
}

func TestTimelineAppendsRejectNegativeTicks(t *testing.T) {
	s := NewScore(Metadata{}, Settings{})
	assert := assert.New(t)
	assert.Equal(1, s.Settings.TicksPerQuarter)
	assert.Error(s.AppendTempo(Tempo{Tick: -1, BPM: 120}))
	assert.NoError(s.AppendTempo(Tempo{Tick: 0, BPM: 120}))
	assert.Error(s.AppendTimeSignature(TimeSignature{Tick: -5}))
	assert.NoError(s.AppendKeyCenter(KeyCenter{Tick: 3, Fifths: 1, Mode: "major", Tonic: 7}))
	assert.Len(s.Tempos, 1)
	assert.Len(s.KeyCenters, 1)
	assert.Empty(s.TimeSignatures)
}

func TestSummarize(t *testing.T) {
	s := NewScore(Metadata{Title: "Song", Composer: "Anon"}, Settings{TicksPerQuarter: 2})
	p := s.AddPart("P1", "Voice")
	assert.NoError(t, p.AddNote(Note{Duration: 8, Pitch: 67, Velocity: 80}))
	sum := Summarize("id-1", "a.xml", s, []Warning{{Message: "x"}})
	assert.Equal(t, ScoreSummary{
		ID: "id-1", Path: "a.xml", Title: "Song", Composer: "Anon",
		Parts: []string{"P1"}, Notes: 1, Warnings: 1, Length: 8,
	}, sum)
}
