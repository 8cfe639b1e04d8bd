package midi

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/scoreline/model"
)

// SMF metric ticks are 15 bits wide
const maxTicksPerQuarter = 1<<15 - 1

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	var blank smf.SMF

	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return &blank, errors.Wrap(err, "Error reading midi file...")
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return &blank, errors.Wrap(err, "Error parsing midi file...")
	}
	return res, nil
}

// message ordering within one tick: meta first, then releases, then onsets
const (
	orderMeta = iota
	orderOff
	orderOn
)

type timedMsg struct {
	tick  int
	order int
	msg   []byte
}

func buildTrack(msgs []timedMsg) smf.Track {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].order < msgs[j].order
	})
	var tr smf.Track
	var last int
	for _, m := range msgs {
		tr.Add(uint32(m.tick-last), m.msg)
		last = m.tick
	}
	tr.Close(0)
	return tr
}

// channelFor spreads parts over the melodic channels, skipping percussion.
func channelFor(partIndex int) uint8 {
	ch := uint8(partIndex % 15)
	if ch >= 9 {
		ch++
	}
	return ch
}

func conductorTrack(s *model.Score) smf.Track {
	msgs := []timedMsg{{tick: 0, order: orderMeta, msg: smf.MetaTrackSequenceName(s.Metadata.Title)}}
	for _, ts := range s.TimeSignatures {
		msgs = append(msgs, timedMsg{tick: ts.Tick, order: orderMeta, msg: smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator))})
	}
	for _, t := range s.Tempos {
		msgs = append(msgs, timedMsg{tick: t.Tick, order: orderMeta, msg: smf.MetaTempo(t.BPM)})
	}
	return buildTrack(msgs)
}

func partTrack(p *model.Part, channel uint8) smf.Track {
	msgs := []timedMsg{{tick: 0, order: orderMeta, msg: smf.MetaTrackSequenceName(p.Name)}}
	for _, e := range p.Notes() {
		msgs = append(msgs,
			timedMsg{tick: e.Onset, order: orderOn, msg: midi.NoteOn(channel, e.Pitch, e.Velocity)},
			timedMsg{tick: e.End(), order: orderOff, msg: midi.NoteOff(channel, e.Pitch)},
		)
	}
	return buildTrack(msgs)
}

// WriteScore encodes the timeline as a format 1 Standard MIDI File: a
// conductor track followed by one track per part.
func WriteScore(s *model.Score, w io.Writer) error {
	tpq := s.Settings.TicksPerQuarter
	if tpq < 1 || tpq > maxTicksPerQuarter {
		return errors.Errorf("ticks per quarter %d cannot be stored in a midi file", tpq)
	}
	out := smf.New()
	out.TimeFormat = smf.MetricTicks(uint16(tpq))
	if err := out.Add(conductorTrack(s)); err != nil {
		return errors.Wrap(err, "adding conductor track")
	}
	for i, p := range s.Parts {
		if err := out.Add(partTrack(p, channelFor(i))); err != nil {
			return errors.Wrapf(err, "adding track for part %s", p.ID)
		}
	}
	if _, err := out.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing midi")
	}
	return nil
}

func WriteScoreFile(s *model.Score, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "Couldn't create midi file")
	}
	defer f.Close()
	if err := WriteScore(s, f); err != nil {
		return err
	}
	return f.Close()
}
