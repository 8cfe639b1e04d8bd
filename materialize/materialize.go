// Package materialize replays the measures of one part, in playback order,
// into tick-positioned events.
//
// Durations are rescaled from each part's local divisions to the
// score-wide resolution, so parts with different divisions stay aligned.
// Tied fragments are merged into single notes; ties never survive a jump
// backwards or the end of the part.
package materialize

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/model"
	"github.com/jsphweid/scoreline/util"
	"github.com/jsphweid/scoreline/xmltree"
)

type Options struct {
	// score-wide ticks per quarter, the lcm of every part's divisions
	GlobalDivisions int
	DefaultVelocity int
	Logger          *slog.Logger
}

// Result holds the part's contribution to the score-wide timeline lists.
// Events go straight into the model.Part.
type Result struct {
	TimeSignatures []model.TimeSignature
	Tempos         []model.Tempo
	KeyCenters     []model.KeyCenter
	Warnings       []model.Warning
	// tick at which the last visited measure ended
	EndTick int
}

type fragment struct {
	onset        int
	duration     int
	velocity     int
	articulation string
}

type materializer struct {
	part     *model.Part
	measures []*xmltree.Node
	global   int
	logger   *slog.Logger

	cursor  *Cursor
	pending map[tieKey]*pendingTie
	res     *Result

	measureNumber string
	// onset of the previous non-chord note, reused by chord members
	lastOnset int
	// furthest tick reached inside the current measure
	measureEnd int
}

// Part materializes measures in the given order into part and returns the
// timeline entries and warnings it produced. Indices outside measures are
// reported and skipped.
func Part(part *model.Part, measures []*xmltree.Node, order []int, opts Options) *Result {
	if opts.GlobalDivisions <= 0 {
		opts.GlobalDivisions = 1
	}
	if opts.DefaultVelocity <= 0 {
		opts.DefaultVelocity = constants.DefaultVelocity
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &materializer{
		part:     part,
		measures: measures,
		global:   opts.GlobalDivisions,
		logger:   opts.Logger,
		cursor:   NewCursor(util.Clamp(opts.DefaultVelocity, 0, constants.MaxVelocity)),
		pending:  make(map[tieKey]*pendingTie),
		res:      &Result{},
	}
	m.run(order)
	m.res.EndTick = m.cursor.Tick
	return m.res
}

func MeasureNumber(measure *xmltree.Node, index int) string {
	if n := measure.Attr("number"); n != "" {
		return n
	}
	return strconv.Itoa(index + 1)
}

func (m *materializer) run(order []int) {
	defer m.flushPending("tie still open at end of part")

	prev := -1
	for k, idx := range order {
		if idx < 0 || idx >= len(m.measures) {
			m.warn("playback order references missing measure index %d", idx)
			continue
		}
		m.measureNumber = MeasureNumber(m.measures[idx], idx)
		if k > 0 && idx <= prev {
			m.flushPending("tie interrupted by a jump back")
		}
		prev = idx
		m.measure(m.measures[idx])
	}
}

func (m *materializer) measure(node *xmltree.Node) {
	m.measureEnd = m.cursor.Tick
	for _, el := range node.Elements() {
		switch el.Tag {
		case "attributes":
			m.attributes(el)
		case "note":
			m.note(el)
		case "backup":
			if d, ok := m.rawDuration(el); ok {
				m.cursor.Advance(-d)
			}
		case "forward":
			if d, ok := m.rawDuration(el); ok {
				m.cursor.Advance(d)
				m.touch()
			}
		case "direction":
			m.direction(el)
		case "sound":
			m.sound(el)
		}
	}
	// voices that stop short do not shorten the measure
	if m.cursor.Tick < m.measureEnd {
		m.cursor.Tick = m.measureEnd
	}
}

func (m *materializer) touch() {
	if m.cursor.Tick > m.measureEnd {
		m.measureEnd = m.cursor.Tick
	}
}

// scale converts local division units to score ticks.
func (m *materializer) scale(raw float64) int {
	return int(math.Round(raw * float64(m.global) / float64(m.cursor.Divisions)))
}

func (m *materializer) rawDuration(el *xmltree.Node) (int, bool) {
	raw, ok := el.ChildFloat("duration")
	if !ok || raw < 0 {
		m.warn("<%s> without a usable duration ignored", el.Tag)
		return 0, false
	}
	return m.scale(raw), true
}

func (m *materializer) warn(format string, args ...any) {
	m.warnAt(m.measureNumber, format, args...)
}

func (m *materializer) warnAt(measure, format string, args ...any) {
	w := model.Warning{
		MeasureNumber: measure,
		PartID:        m.part.ID,
		Message:       fmt.Sprintf(format, args...),
	}
	m.res.Warnings = append(m.res.Warnings, w)
	m.logger.Warn("import anomaly", "part", w.PartID, "measure", w.MeasureNumber, "message", w.Message)
}

func (m *materializer) addNote(key tieKey, onset, duration, velocity int, articulation string) {
	err := m.part.AddNote(model.Note{
		Onset:        util.Max(onset, 0),
		Duration:     util.Max(duration, 1),
		Pitch:        key.pitch,
		Velocity:     util.Clamp(velocity, 0, constants.MaxVelocity),
		Voice:        key.voice,
		Articulation: articulation,
	})
	if err != nil {
		m.warn("note dropped: %v", err)
	}
}

func (m *materializer) addRest(onset, duration, voice int) {
	if duration < 1 {
		return
	}
	if err := m.part.AddRest(util.Max(onset, 0), duration, voice); err != nil {
		m.warn("rest dropped: %v", err)
	}
}

func (m *materializer) note(el *xmltree.Node) {
	isChord := el.Has("chord")
	isGrace := el.Has("grace")
	isRest := el.Has("rest")

	duration, ok := m.noteDuration(el, isGrace, isRest)
	if !ok {
		m.warn("note without duration skipped")
		return
	}
	voice := m.cursor.Voice(xmlText(el, "voice"))

	onset := m.cursor.Tick
	if isChord {
		onset = m.lastOnset
	} else {
		m.lastOnset = onset
		m.cursor.Advance(duration)
		m.touch()
	}

	// cue notes occupy time but do not sound
	if isRest || el.Has("cue") {
		if !isChord {
			m.addRest(onset, duration, voice)
		}
		return
	}

	pitch, ok := m.pitch(el)
	if !ok {
		m.warn("note without pitch treated as a rest")
		if !isChord {
			m.addRest(onset, duration, voice)
		}
		return
	}

	velocity := m.cursor.Velocity
	if dyn, ok := el.AttrFloat("dynamics"); ok {
		velocity = dynamicsVelocity(dyn)
	}
	frag := fragment{
		onset:        onset,
		duration:     duration,
		velocity:     velocity,
		articulation: articulation(el),
	}
	key := tieKey{voice: voice, pitch: pitch}

	if isGrace {
		m.untied(key, frag)
		return
	}
	start, stop := ties(el)
	switch {
	case stop:
		m.tieStop(key, frag, start)
	case start:
		m.tieStart(key, frag)
	default:
		m.untied(key, frag)
	}
}

var stepSemitones = map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}

// pitch returns the sounding MIDI pitch, clamped into 0-127.
func (m *materializer) pitch(el *xmltree.Node) (int, bool) {
	var step string
	var octave int
	var alter float64
	if p := el.Find("pitch"); p != nil {
		s, ok1 := p.ChildText("step")
		o, ok2 := p.ChildInt("octave")
		if !ok1 || !ok2 {
			return 0, false
		}
		step, octave = s, o
		alter, _ = p.ChildFloat("alter")
	} else if u := el.Find("unpitched"); u != nil {
		s, ok1 := u.ChildText("display-step")
		o, ok2 := u.ChildInt("display-octave")
		if !ok1 || !ok2 {
			return 0, false
		}
		step, octave = s, o
	} else {
		return 0, false
	}
	semis, ok := stepSemitones[strings.ToUpper(step)]
	if !ok {
		return 0, false
	}
	p := (octave+1)*12 + semis + int(math.Round(alter)) + m.cursor.Transpose
	if p < 0 || p > constants.MaxPitch {
		m.warn("pitch %d out of range, clamped", p)
		p = util.Clamp(p, 0, constants.MaxPitch)
	}
	return p, true
}

var typeQuarters = map[string]float64{
	"maxima":  32,
	"long":    16,
	"breve":   8,
	"whole":   4,
	"half":    2,
	"quarter": 1,
	"eighth":  0.5,
	"16th":    0.25,
	"32nd":    0.125,
	"64th":    0.0625,
	"128th":   0.03125,
	"256th":   0.015625,
}

// noteDuration returns the note's length in score ticks. <duration> already
// includes any tuplet scaling; the <type> fallback applies dots and
// <time-modification> itself.
func (m *materializer) noteDuration(el *xmltree.Node, isGrace, isRest bool) (int, bool) {
	if isGrace {
		return 0, true
	}
	if raw, ok := el.ChildFloat("duration"); ok && raw >= 0 {
		return m.scale(raw), true
	}
	if t, ok := el.ChildText("type"); ok {
		q, known := typeQuarters[t]
		if known {
			add := q
			for range el.FindAll("dot") {
				add /= 2
				q += add
			}
			if tm := el.Find("time-modification"); tm != nil {
				actual, ok1 := tm.ChildInt("actual-notes")
				normal, ok2 := tm.ChildInt("normal-notes")
				if ok1 && ok2 && actual > 0 && normal > 0 {
					q = q * float64(normal) / float64(actual)
				}
			}
			return int(math.Round(q * float64(m.global))), true
		}
	}
	if isRest && el.Find("rest").Attr("measure") == "yes" && m.cursor.Beats > 0 {
		q := float64(m.cursor.Beats) * 4 / float64(m.cursor.BeatType)
		return int(math.Round(q * float64(m.global))), true
	}
	return 0, false
}

func ties(el *xmltree.Node) (start, stop bool) {
	for _, t := range el.FindAll("tie") {
		switch t.Attr("type") {
		case "start":
			start = true
		case "stop":
			stop = true
		}
	}
	if start || stop {
		return start, stop
	}
	for _, n := range el.FindAll("notations") {
		for _, t := range n.FindAll("tied") {
			switch t.Attr("type") {
			case "start", "continue":
				start = true
			case "stop":
				stop = true
			}
		}
	}
	return start, stop
}

func articulation(el *xmltree.Node) string {
	for _, n := range el.FindAll("notations") {
		for _, a := range n.FindAll("articulations") {
			if elems := a.Elements(); len(elems) > 0 {
				return elems[0].Tag
			}
		}
	}
	return ""
}

func xmlText(el *xmltree.Node, tag string) string {
	s, _ := el.ChildText(tag)
	return s
}
