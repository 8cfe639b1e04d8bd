package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/scoreline/codec"
	"github.com/jsphweid/scoreline/config"
	"github.com/jsphweid/scoreline/model"
)

const repeatScore = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="4.0">
  <work><work-title>Round</work-title></work>
  <part-list>
    <score-part id="P1"><part-name>Voice</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>1</divisions>
        <time><beats>1</beats><beat-type>4</beat-type></time>
      </attributes>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
    <measure number="2">
      <note><pitch><step>E</step><octave>4</octave></pitch><duration>1</duration></note>
      <barline location="right"><repeat direction="backward"/></barline>
    </measure>
  </part>
</score-partwise>`

func post(t *testing.T, target, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, req)
	return w.Result()
}

func TestHandleImport(t *testing.T) {
	resp := post(t, "/import", repeatScore)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res model.ImportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))

	assert := assert.New(t)
	assert.NotEmpty(res.Score.Metadata.ID)
	assert.Equal("Round", res.Score.Metadata.Title)
	assert.NotNil(res.Warnings)
	require.Len(t, res.Score.Parts, 1)
	var onsets []int
	for _, e := range res.Score.Parts[0].Events {
		onsets = append(onsets, e.Onset)
	}
	assert.Equal([]int{0, 1, 2, 3}, onsets)
}

func TestHandleImportCBOR(t *testing.T) {
	resp := post(t, "/import?format=cbor", repeatScore)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/cbor", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	var res model.ImportResponse
	require.NoError(t, codec.DecodeCBOR(buf.Bytes(), &res))
	assert.Equal(t, 4, res.Score.NoteCount())
}

func TestHandleImportRejectsTimewise(t *testing.T) {
	resp := post(t, "/import", `<score-timewise><measure number="1"/></score-timewise>`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var res model.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Contains(t, res.Error, "timewise")
}

func TestHandleImportUnknownFormat(t *testing.T) {
	resp := post(t, "/import?format=toml", repeatScore)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleImportBodyLimit(t *testing.T) {
	saved := cfg
	cfg = config.Default()
	cfg.Serve.MaxBodyBytes = 16
	defer func() { cfg = saved }()

	resp := post(t, "/import", repeatScore)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestHandleExpand(t *testing.T) {
	resp := post(t, "/expand", repeatScore)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.ExpandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, []model.ExpandedPart{{
		PartID:   "P1",
		Measures: []string{"1", "2", "1", "2"},
		Indices:  []int{0, 1, 0, 1},
	}}, res.Parts)
}

func TestHealthzAndCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestExpandCommand(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	path := filepath.Join(t.TempDir(), "round.musicxml")
	require.NoError(t, os.WriteFile(path, []byte(repeatScore), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"expand", path})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "P1: 1 2 1 2\n", out.String())
}

func TestImportCommandYAML(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	path := filepath.Join(t.TempDir(), "round.musicxml")
	require.NoError(t, os.WriteFile(path, []byte(repeatScore), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"import", "--format", "yaml", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "title: Round")
	assert.Contains(t, out.String(), "ticks_per_quarter: 1")
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "round.musicxml"), []byte(repeatScore), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<score-timewise/>"), 0o644))

	var out bytes.Buffer
	report(&out, []string{filepath.Join(dir, "broken.xml"), filepath.Join(dir, "round.musicxml")})

	text := out.String()
	assert.Contains(t, text, "round.musicxml: events 4, notes 4, chords 4 (2 distinct), warnings 0, length 4")
	assert.Contains(t, text, "files: 1 imported, 1 failed")
	assert.Contains(t, text, "total notes: 4")
}
