package chord

import (
	"fmt"
	"sort"

	"github.com/jsphweid/scoreline/model"
)

func CreateChordKey(notes []uint8) string {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i] < notes[j]
	})
	var res string
	for i, note := range notes {
		res += fmt.Sprintf("%v", note)
		if i < len(notes)-1 {
			res += "-"
		}
	}
	return res
}

// sounding tracks how many voices hold each pitch and when it last started.
type sounding struct {
	held  map[uint8]int
	since map[uint8]int
}

func (s sounding) chord(tick int, partID string) model.Chord {
	c := model.Chord{Tick: tick, PartID: partID, FormedByOnset: true}
	for note := range s.held {
		c.Notes = append(c.Notes, note)
		if s.since[note] != tick {
			c.FormedByOnset = false
		}
	}
	sort.Slice(c.Notes, func(i, j int) bool { return c.Notes[i] < c.Notes[j] })
	return c
}

func reduce(p *model.Part) []model.ReducedEvent {
	var reducedEvents []model.ReducedEvent
	for _, e := range p.Notes() {
		reducedEvents = append(reducedEvents,
			model.ReducedEvent{Tick: e.Onset, Note: e.Pitch},
			model.ReducedEvent{Tick: e.End(), IsNoteOff: true, Note: e.Pitch},
		)
	}

	// prioritize smaller ticks then note off
	sort.SliceStable(reducedEvents, func(i, j int) bool {
		if reducedEvents[i].Tick != reducedEvents[j].Tick {
			return reducedEvents[i].Tick < reducedEvents[j].Tick
		}
		return reducedEvents[i].IsNoteOff && !reducedEvents[j].IsNoteOff
	})
	return reducedEvents
}

// GetChords returns one chord per tick at which the set of sounding pitches
// in the part changes, skipping silences. Chords are ordered by tick.
func GetChords(p *model.Part) []model.Chord {
	s := sounding{held: make(map[uint8]int), since: make(map[uint8]int)}
	tickToChord := make(map[int]model.Chord)
	for _, evt := range reduce(p) {
		if evt.IsNoteOff {
			s.held[evt.Note]--
			if s.held[evt.Note] <= 0 {
				delete(s.held, evt.Note)
				delete(s.since, evt.Note)
			}
		} else {
			s.held[evt.Note]++
			s.since[evt.Note] = evt.Tick
		}
		tickToChord[evt.Tick] = s.chord(evt.Tick, p.ID)
	}

	var chords []model.Chord
	for _, c := range tickToChord {
		if len(c.Notes) > 0 {
			chords = append(chords, c)
		}
	}
	sort.Slice(chords, func(i, j int) bool { return chords[i].Tick < chords[j].Tick })
	return chords
}

func GetScoreChords(s *model.Score) []model.Chord {
	var res []model.Chord
	for _, p := range s.Parts {
		res = append(res, GetChords(p)...)
	}
	return res
}

// CountDistinct returns how many different pitch sets appear in chords.
func CountDistinct(chords []model.Chord) int {
	keys := make(map[string]bool)
	for _, c := range chords {
		notes := append([]uint8(nil), c.Notes...)
		keys[CreateChordKey(notes)] = true
	}
	return len(keys)
}
