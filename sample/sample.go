package sample

import (
	"github.com/jsphweid/scoreline/model"
)

// Create cuts an excerpt starting at fromTick holding at most maxNotes notes
// per part. Everything is shifted so the excerpt starts at tick 0, and the
// meter, tempo and key in force at fromTick are carried to tick 0.
// maxNotes <= 0 keeps every note.
func Create(s *model.Score, fromTick int, maxNotes int) *model.Score {
	res := model.NewScore(s.Metadata, s.Settings)

	for _, p := range s.Parts {
		np := res.AddPart(p.ID, p.Name)
		var numNotes int
		for _, e := range p.Events {
			if e.Onset < fromTick {
				continue
			}
			if !e.Rest {
				if maxNotes > 0 && numNotes >= maxNotes {
					break
				}
				numNotes++
			}
			e.Onset -= fromTick
			np.Events = append(np.Events, e)
		}
	}

	for i, ts := range s.TimeSignatures {
		if keep(i, len(s.TimeSignatures), ts.Tick, fromTick, func(j int) int { return s.TimeSignatures[j].Tick }) {
			ts.Tick = shift(ts.Tick, fromTick)
			res.TimeSignatures = append(res.TimeSignatures, ts)
		}
	}
	for i, t := range s.Tempos {
		if keep(i, len(s.Tempos), t.Tick, fromTick, func(j int) int { return s.Tempos[j].Tick }) {
			t.Tick = shift(t.Tick, fromTick)
			res.Tempos = append(res.Tempos, t)
		}
	}
	for i, k := range s.KeyCenters {
		if keep(i, len(s.KeyCenters), k.Tick, fromTick, func(j int) int { return s.KeyCenters[j].Tick }) {
			k.Tick = shift(k.Tick, fromTick)
			res.KeyCenters = append(res.KeyCenters, k)
		}
	}
	return res
}

// keep reports whether entry i of a tick-sorted list is in force at or
// after fromTick.
func keep(i, n, tick, fromTick int, tickAt func(int) int) bool {
	if tick >= fromTick {
		return true
	}
	return i == n-1 || tickAt(i+1) > fromTick
}

func shift(tick, fromTick int) int {
	if tick < fromTick {
		return 0
	}
	return tick - fromTick
}
