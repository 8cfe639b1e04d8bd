package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsphweid/scoreline/model"
)

func scale() *model.Score {
	s := model.NewScore(model.Metadata{Title: "Scale"}, model.Settings{TicksPerQuarter: 2})
	p := s.AddPart("P1", "Piano")
	for i := 0; i < 8; i++ {
		_ = p.AddNote(model.Note{Onset: i * 2, Duration: 2, Pitch: 60 + i, Velocity: 64})
	}
	_ = s.AppendTimeSignature(model.TimeSignature{Tick: 0, Numerator: 4, Denominator: 4})
	_ = s.AppendTimeSignature(model.TimeSignature{Tick: 8, Numerator: 3, Denominator: 4})
	_ = s.AppendTempo(model.Tempo{Tick: 0, BPM: 120})
	_ = s.AppendTempo(model.Tempo{Tick: 4, BPM: 90})
	_ = s.AppendTempo(model.Tempo{Tick: 12, BPM: 60})
	return s
}

func TestCreateShiftsAndLimits(t *testing.T) {
	res := Create(scale(), 6, 3)

	assert := assert.New(t)
	assert.Equal("Scale", res.Metadata.Title)
	if assert.Len(res.Parts, 1) {
		notes := res.Parts[0].Notes()
		if assert.Len(notes, 3) {
			assert.Equal(0, notes[0].Onset)
			assert.Equal(uint8(63), notes[0].Pitch)
			assert.Equal(4, notes[2].Onset)
		}
	}
	assert.Equal([]model.TimeSignature{{Tick: 0, Numerator: 4, Denominator: 4}, {Tick: 2, Numerator: 3, Denominator: 4}}, res.TimeSignatures)
	assert.Equal([]model.Tempo{{Tick: 0, BPM: 90}, {Tick: 6, BPM: 60}}, res.Tempos)
}

func TestCreateWithoutLimitKeepsEverything(t *testing.T) {
	res := Create(scale(), 0, 0)
	assert.Len(t, res.Parts[0].Notes(), 8)
	assert.Len(t, res.Tempos, 3)
}

func TestCreateLeavesSourceUntouched(t *testing.T) {
	s := scale()
	Create(s, 6, 1)
	assert.Equal(t, 6, s.Parts[0].Events[3].Onset)
}
