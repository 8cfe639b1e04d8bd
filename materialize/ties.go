package materialize

import "sort"

type tieKey struct {
	voice int
	pitch int
}

// pendingTie accumulates the fragments of a tied note until a stop with no
// further start arrives.
type pendingTie struct {
	onset        int
	duration     int
	velocity     int
	articulation string
	// measure of the first fragment, for warnings
	measure string
}

func (p *pendingTie) end() int {
	return p.onset + p.duration
}

// tieStart opens a pending tie or extends the one already sounding.
func (m *materializer) tieStart(key tieKey, frag fragment) {
	if p, ok := m.pending[key]; ok {
		if p.end() == frag.onset {
			p.duration += frag.duration
			return
		}
		m.flushOne(key, p, "tie start never reached its stop")
	}
	m.pending[key] = &pendingTie{
		onset:        frag.onset,
		duration:     frag.duration,
		velocity:     frag.velocity,
		articulation: frag.articulation,
		measure:      m.measureNumber,
	}
}

// tieStop closes or extends the pending tie for key.
func (m *materializer) tieStop(key tieKey, frag fragment, alsoStart bool) {
	p, ok := m.pending[key]
	if !ok {
		m.warn("tie stop on pitch %d without a matching start", key.pitch)
		if alsoStart {
			m.tieStart(key, frag)
			return
		}
		m.addNote(key, frag.onset, frag.duration, frag.velocity, frag.articulation)
		return
	}
	p.duration += frag.duration
	if alsoStart {
		return
	}
	delete(m.pending, key)
	m.addNote(key, p.onset, p.duration, p.velocity, p.articulation)
}

// untied handles a fragment with no tie markings. A tie still open on the
// same voice and pitch would overlap it, so that tie is closed first.
func (m *materializer) untied(key tieKey, frag fragment) {
	if p, ok := m.pending[key]; ok {
		m.flushOne(key, p, "tie start never reached its stop")
	}
	m.addNote(key, frag.onset, frag.duration, frag.velocity, frag.articulation)
}

func (m *materializer) flushOne(key tieKey, p *pendingTie, reason string) {
	delete(m.pending, key)
	m.warnAt(p.measure, "%s (pitch %d, voice %d)", reason, key.pitch, key.voice)
	m.addNote(key, p.onset, p.duration, p.velocity, p.articulation)
}

// flushPending resolves every open tie, oldest first.
func (m *materializer) flushPending(reason string) {
	if len(m.pending) == 0 {
		return
	}
	keys := make([]tieKey, 0, len(m.pending))
	for k := range m.pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := m.pending[keys[i]], m.pending[keys[j]]
		if a.onset != b.onset {
			return a.onset < b.onset
		}
		if keys[i].voice != keys[j].voice {
			return keys[i].voice < keys[j].voice
		}
		return keys[i].pitch < keys[j].pitch
	})
	for _, k := range keys {
		m.flushOne(k, m.pending[k], reason)
	}
}
