//go:build e2e
// +build e2e

package e2e_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/scoreline/cmd"
	"github.com/jsphweid/scoreline/config"
	"github.com/jsphweid/scoreline/db"
	"github.com/jsphweid/scoreline/model"
)

// Requires DynamoDB Local on the configured endpoint with the index table
// created (partition key PK, string).

const codaScore = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0">
  <work><work-title>Coda Study</work-title></work>
  <identification><creator type="composer">Tester</creator></identification>
  <part-list><score-part id="P1"><part-name>Piano</part-name></score-part></part-list>
  <part id="P1">
    <measure number="1">
      <attributes><divisions>1</divisions><time><beats>1</beats><beat-type>4</beat-type></time></attributes>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
    <measure number="2">
      <direction><direction-type><words>To Coda</words></direction-type></direction>
      <note><pitch><step>D</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
    <measure number="3">
      <note><pitch><step>E</step><octave>4</octave></pitch><duration>1</duration></note>
      <direction><direction-type><words>D.C. al Coda</words></direction-type></direction>
    </measure>
    <measure number="4">
      <direction><direction-type><coda/></direction-type></direction>
      <note><pitch><step>G</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
</score-partwise>`

var scoresDir string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "scoreline-e2e")
	if err != nil {
		panic(err.Error())
	}
	scoresDir = dir
	if err := os.WriteFile(filepath.Join(dir, "coda.musicxml"), []byte(codaScore), 0o644); err != nil {
		panic(err.Error())
	}

	exitVal := m.Run()

	os.RemoveAll(dir)
	os.Exit(exitVal)
}

func TestImportOverHTTP(t *testing.T) {
	srv := httptest.NewServer(cmd.NewRouter())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/import", "application/xml", strings.NewReader(codaScore))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.ImportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))

	var pitches []uint8
	for _, e := range res.Score.Parts[0].Notes() {
		pitches = append(pitches, e.Pitch)
	}
	assert := assert.New(t)
	assert.Equal([]uint8{60, 62, 64, 60, 62, 67}, pitches)
	assert.Equal("Tester", res.Score.Metadata.Composer)
}

func TestIndexIntoDynamo(t *testing.T) {
	cfg := config.Default()
	client, err := db.New(cfg.Dynamo)
	require.NoError(t, err)

	sums, err := cmd.Index(client, scoresDir, 0)
	require.NoError(t, err)
	require.Len(t, sums, 1)

	got, err := client.GetScoreSummaries([]string{sums[0].ID})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("Coda Study", got[sums[0].ID].Title)
	assert.Equal(6, got[sums[0].ID].Notes)
	assert.Equal([]string{"P1"}, got[sums[0].ID].Parts)
}
