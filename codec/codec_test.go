package codec

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/scoreline/model"
)

func sampleScore() *model.Score {
	s := model.NewScore(model.Metadata{Title: "x"}, model.Settings{TicksPerQuarter: 2})
	p := s.AddPart("P1", "Flute")
	_ = p.AddNote(model.Note{Onset: 0, Duration: 2, Pitch: 60, Velocity: 64})
	_ = p.AddRest(2, 2, 0)
	_ = s.AppendTempo(model.Tempo{Tick: 0, BPM: 96})
	return s
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
	assert.Equal(t, "application/cbor", CBOR.ContentType())
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, JSON, sampleScore()))
	var back model.Score
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, sampleScore(), &back)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, YAML, sampleScore()))
	assert.Contains(t, buf.String(), "ticks_per_quarter: 2")
	assert.Contains(t, buf.String(), "rest: true")
}

func TestEncodeCBORIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, CBOR, sampleScore()))
	require.NoError(t, Encode(&b, CBOR, sampleScore()))
	assert.Equal(t, a.Bytes(), b.Bytes())

	var back model.Score
	require.NoError(t, DecodeCBOR(a.Bytes(), &back))
	assert.Equal(t, sampleScore(), &back)
}
