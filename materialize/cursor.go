package materialize

import (
	"strings"

	"github.com/jsphweid/scoreline/constants"
)

// Cursor is the playback state of one part. It is owned by a single
// materializer and never shared between parts.
type Cursor struct {
	// source duration units per quarter note
	Divisions int
	// absolute position in score ticks
	Tick      int
	Transpose int
	Velocity  int

	Beats    int
	BeatType int

	voices    map[string]int
	nextVoice int
}

func NewCursor(velocity int) *Cursor {
	return &Cursor{
		Divisions: 1,
		Velocity:  velocity,
		BeatType:  constants.DefaultBeatType,
		voices:    make(map[string]int),
	}
}

// Voice maps a source voice label to a dense index, assigned in order of
// first appearance. Unlabeled notes belong to voice "1".
func (c *Cursor) Voice(label string) int {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "1"
	}
	if v, ok := c.voices[label]; ok {
		return v
	}
	v := c.nextVoice
	c.voices[label] = v
	c.nextVoice++
	return v
}

func (c *Cursor) VoiceCount() int {
	return c.nextVoice
}

// Advance moves the cursor by d ticks, clamping at zero for backups.
func (c *Cursor) Advance(d int) {
	c.Tick += d
	if c.Tick < 0 {
		c.Tick = 0
	}
}
