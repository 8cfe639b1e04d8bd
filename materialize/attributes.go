package materialize

import (
	"math"
	"strconv"
	"strings"

	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/model"
	"github.com/jsphweid/scoreline/util"
	"github.com/jsphweid/scoreline/xmltree"
)

func (m *materializer) attributes(el *xmltree.Node) {
	if el.Has("divisions") {
		if d, ok := el.ChildInt("divisions"); ok && d > 0 {
			m.cursor.Divisions = d
		} else {
			m.warn("invalid divisions ignored")
		}
	}
	// transposition first, so a key in the same block is read at concert pitch
	if tr := el.Find("transpose"); tr != nil {
		chromatic, _ := tr.ChildInt("chromatic")
		octaves, _ := tr.ChildInt("octave-change")
		m.cursor.Transpose = chromatic + 12*octaves
	}
	if key := el.Find("key"); key != nil {
		m.key(key)
	}
	if t := el.Find("time"); t != nil {
		m.time(t)
	}
}

var modeOffsets = map[string]int{
	"major":      0,
	"ionian":     0,
	"dorian":     2,
	"phrygian":   4,
	"lydian":     5,
	"mixolydian": 7,
	"minor":      9,
	"aeolian":    9,
	"locrian":    11,
}

func (m *materializer) key(el *xmltree.Node) {
	fifths, ok := el.ChildInt("fifths")
	if !ok {
		// non-traditional keys carry no fifths
		return
	}
	mode, _ := el.ChildText("mode")
	mode = strings.ToLower(mode)
	if _, known := modeOffsets[mode]; !known {
		mode = "major"
	}
	fifths = concertFifths(fifths, m.cursor.Transpose)
	tonic := ((fifths*7)%12 + 12 + modeOffsets[mode]) % 12
	m.res.KeyCenters = append(m.res.KeyCenters, model.KeyCenter{
		Tick:   m.cursor.Tick,
		Fifths: fifths,
		Mode:   mode,
		Tonic:  tonic,
	})
}

// concertFifths moves a written key signature by a transposition given in
// semitones, keeping the result within seven accidentals.
func concertFifths(fifths, semitones int) int {
	f := fifths + 7*semitones
	for f > 7 {
		f -= 12
	}
	for f < -7 {
		f += 12
	}
	return f
}

func (m *materializer) time(el *xmltree.Node) {
	if el.Has("senza-misura") {
		return
	}
	beatsText, ok1 := el.ChildText("beats")
	beatType, ok2 := el.ChildInt("beat-type")
	beats, ok3 := sumBeats(beatsText)
	if !ok1 || !ok2 || !ok3 || beatType <= 0 || beats <= 0 {
		m.warn("unreadable time signature ignored")
		return
	}
	m.cursor.Beats = beats
	m.cursor.BeatType = beatType
	m.res.TimeSignatures = append(m.res.TimeSignatures, model.TimeSignature{
		Tick:        m.cursor.Tick,
		Numerator:   beats,
		Denominator: beatType,
	})
}

// sumBeats reads beats such as "3" or additive "3+2".
func sumBeats(s string) (int, bool) {
	var total int
	for _, part := range strings.Split(s, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, false
		}
		total += n
	}
	return total, true
}

func (m *materializer) direction(el *xmltree.Node) {
	var tempoSet bool
	if snd := el.Find("sound"); snd != nil {
		tempoSet = snd.HasAttr("tempo")
		m.sound(snd)
	}
	for _, dt := range el.FindAll("direction-type") {
		if dyn := dt.Find("dynamics"); dyn != nil {
			for _, mark := range dyn.Elements() {
				if v, ok := markVelocities[mark.Tag]; ok {
					m.cursor.Velocity = v
					break
				}
			}
		}
		if met := dt.Find("metronome"); met != nil && !tempoSet {
			if bpm, ok := metronomeBPM(met); ok {
				m.appendTempo(bpm)
				tempoSet = true
			}
		}
	}
}

func (m *materializer) sound(el *xmltree.Node) {
	if bpm, ok := el.AttrFloat("tempo"); ok {
		if bpm > 0 {
			m.appendTempo(bpm)
		} else {
			m.warn("non-positive tempo %v ignored", bpm)
		}
	}
	if dyn, ok := el.AttrFloat("dynamics"); ok {
		m.cursor.Velocity = dynamicsVelocity(dyn)
	}
}

func (m *materializer) appendTempo(bpm float64) {
	m.res.Tempos = append(m.res.Tempos, model.Tempo{Tick: m.cursor.Tick, BPM: bpm})
}

// dynamicsVelocity converts a <sound dynamics> percentage, where 100 is
// forte at velocity 90.
func dynamicsVelocity(percent float64) int {
	return util.Clamp(int(math.Round(percent*0.9)), 0, constants.MaxVelocity)
}

var markVelocities = map[string]int{
	"pppp": 10,
	"ppp":  20,
	"pp":   31,
	"p":    42,
	"mp":   53,
	"mf":   64,
	"f":    80,
	"ff":   96,
	"fff":  112,
	"ffff": 127,
}

var beatUnitQuarters = map[string]float64{
	"whole":   4,
	"half":    2,
	"quarter": 1,
	"eighth":  0.5,
	"16th":    0.25,
}

// metronomeBPM converts a beat-unit = per-minute mark to quarter notes per
// minute.
func metronomeBPM(el *xmltree.Node) (float64, bool) {
	unit, ok := el.ChildText("beat-unit")
	if !ok {
		return 0, false
	}
	q, ok := beatUnitQuarters[unit]
	if !ok {
		return 0, false
	}
	if el.Has("beat-unit-dot") {
		q *= 1.5
	}
	perMinute, ok := el.ChildFloat("per-minute")
	if !ok || perMinute <= 0 {
		return 0, false
	}
	return perMinute * q, true
}
