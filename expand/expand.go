// Package expand turns the structural annotations of a part into the order
// in which its measures are actually played.
//
// Expansion is a bounded simulation of a performer reading the part: one
// pointer, a repeat start, a pass counter and a few latches. Every jump
// backwards consumes a pass or a once-only latch, and the number of emitted
// measures is capped, so malformed input always terminates.
package expand

import (
	"github.com/jsphweid/scoreline/annotate"
	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/util"
)

type Option func(*expander)

// WithCeiling bounds the output to len(annotations)*factor indices.
func WithCeiling(factor int) Option {
	return func(e *expander) {
		if factor > 0 {
			e.factor = factor
		}
	}
}

type state struct {
	pos         int
	repeatStart int
	repeatPass  int

	jumpedBack       bool
	skipInnerRepeats bool
	dcDsFired        bool

	lastEmitted int
}

type expander struct {
	anns   []annotate.Annotation
	factor int

	// ending numbers per measure, empty outside any bracket
	endings [][]int
	// last measure of the bracket a measure belongs to
	bracketEnd []int
	// highest ending number in the run of adjacent brackets
	groupMax []int

	st  state
	out []int
}

// Expand returns source measure indices in playback order. Without any
// repeat, ending or jump the result is 0..n-1.
func Expand(anns []annotate.Annotation, opts ...Option) []int {
	e := &expander{anns: anns, factor: constants.CeilingFactor}
	for _, opt := range opts {
		opt(e)
	}
	if !hasStructure(anns) {
		return identity(len(anns))
	}
	e.computeBrackets()
	return e.run()
}

func hasStructure(anns []annotate.Annotation) bool {
	for _, a := range anns {
		if a.HasStructure() {
			return true
		}
	}
	return false
}

func identity(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = i
	}
	return res
}

func (e *expander) computeBrackets() {
	n := len(e.anns)
	e.endings = make([][]int, n)
	e.bracketEnd = make([]int, n)
	e.groupMax = make([]int, n)
	for i := range e.bracketEnd {
		e.bracketEnd[i] = -1
	}

	for i := 0; i < n; i++ {
		a := e.anns[i]
		if a.EndingBoundary != annotate.BoundaryStart || len(a.EndingNumbers) == 0 {
			continue
		}
		end := e.closeBracket(i)
		for j := i; j <= end; j++ {
			e.endings[j] = a.EndingNumbers
			e.bracketEnd[j] = end
		}
		i = end
	}

	// adjacent brackets form one group, e.g. "1." directly followed by "2."
	for i := 0; i < n; {
		if e.bracketEnd[i] < 0 {
			i++
			continue
		}
		start, hi := i, 0
		for i < n && e.bracketEnd[i] >= 0 {
			for _, num := range e.endings[i] {
				hi = util.Max(hi, num)
			}
			i = e.bracketEnd[i] + 1
		}
		for j := start; j < i; j++ {
			e.groupMax[j] = hi
		}
	}
}

// closeBracket finds the last measure of the bracket opened at start: the
// first later stop/discontinue or backward repeat, or the measure before
// the next ending start.
func (e *expander) closeBracket(start int) int {
	first := e.anns[start]
	if first.EndingClosed || first.RepeatBackward {
		return start
	}
	for j := start + 1; j < len(e.anns); j++ {
		a := e.anns[j]
		switch a.EndingBoundary {
		case annotate.BoundaryStart:
			return j - 1
		case annotate.BoundaryStop, annotate.BoundaryDiscontinue:
			return j
		}
		if a.RepeatBackward {
			return j
		}
	}
	return len(e.anns) - 1
}

func (e *expander) inBracket(i int) bool {
	return len(e.endings[i]) > 0
}

func (e *expander) inEnding(i, pass int) bool {
	for _, n := range e.endings[i] {
		if n == pass {
			return true
		}
	}
	return false
}

// governingTimes is the pass count of the backward repeat at i. A repeat
// closing an ending bracket plays at least as many passes as the group has
// endings.
func (e *expander) governingTimes(i int) int {
	return util.Max(e.anns[i].RepeatTimes, e.groupMax[i])
}

func (e *expander) run() []int {
	n := len(e.anns)
	limit := n * e.factor
	e.st = state{repeatPass: 1, lastEmitted: -1}
	st := &e.st

	// skips do not emit, so bound iterations as well
	for steps := 0; st.pos < n && len(e.out) < limit && steps < 2*limit; steps++ {
		a := e.anns[st.pos]

		if !st.skipInnerRepeats {
			if e.leavingEndings() {
				st.repeatPass = 1
				st.repeatStart = st.pos
			}
			if e.inBracket(st.pos) && !e.inEnding(st.pos, st.repeatPass) {
				e.skipBracket()
				continue
			}
			if a.RepeatForward && st.pos != st.repeatStart {
				st.repeatStart = st.pos
			}
		}

		e.out = append(e.out, st.pos)
		st.lastEmitted = st.pos

		if a.Fine && st.jumpedBack {
			break
		}
		if e.toCoda(a) || e.daCapo(a) || e.dalSegno(a) || e.repeatBack(a) {
			continue
		}
		if a.RepeatBackward && !st.skipInnerRepeats {
			// count exhausted: later repeated sections start their own count
			st.repeatPass = 1
			st.repeatStart = st.pos + 1
		}
		st.pos++
	}
	return e.out
}

// leavingEndings reports stepping forward out of an ending group into
// unbracketed music after a later pass, which finishes that repeat.
func (e *expander) leavingEndings() bool {
	st := &e.st
	return st.repeatPass > 1 &&
		!e.inBracket(st.pos) &&
		st.lastEmitted >= 0 && st.pos > st.lastEmitted &&
		e.inBracket(st.lastEmitted)
}

// skipBracket moves past a bracket whose numbers exclude the current pass:
// to a later bracket in the same group that includes it, or else through
// the closing backward repeat, which is resolved here.
func (e *expander) skipBracket() {
	st := &e.st
	end := e.bracketEnd[st.pos]
	for k := end + 1; k < len(e.anns) && e.inBracket(k); k = e.bracketEnd[k] + 1 {
		if e.inEnding(k, st.repeatPass) {
			st.pos = k
			return
		}
	}
	closing := e.anns[end]
	if closing.RepeatBackward {
		if st.repeatPass < e.governingTimes(end) {
			st.repeatPass++
			st.pos = st.repeatStart
			return
		}
		// count exhausted: whatever follows starts its own count
		st.repeatPass = 1
		st.repeatStart = end + 1
	}
	st.pos = end + 1
}

func (e *expander) repeatBack(a annotate.Annotation) bool {
	st := &e.st
	if !a.RepeatBackward || st.skipInnerRepeats {
		return false
	}
	if st.repeatPass >= e.governingTimes(st.pos) {
		return false
	}
	st.repeatPass++
	st.pos = st.repeatStart
	return true
}

func (e *expander) toCoda(a annotate.Annotation) bool {
	st := &e.st
	if a.ToCoda == "" || !st.jumpedBack {
		return false
	}
	target := e.findCoda(a.ToCoda)
	if target < 0 {
		return false
	}
	st.pos = target
	st.repeatStart = target
	st.repeatPass = 1
	st.jumpedBack = false
	st.skipInnerRepeats = false
	return true
}

func (e *expander) daCapo(a annotate.Annotation) bool {
	st := &e.st
	if !a.DaCapo || st.dcDsFired {
		return false
	}
	e.jumpTo(0)
	return true
}

func (e *expander) dalSegno(a annotate.Annotation) bool {
	st := &e.st
	if a.DalSegno == "" || st.dcDsFired {
		return false
	}
	target := e.findMarker(a.DalSegno, func(m annotate.Annotation) string { return m.Segno }, -1)
	if target < 0 {
		target = 0
	}
	e.jumpTo(target)
	return true
}

func (e *expander) jumpTo(target int) {
	st := &e.st
	st.pos = target
	st.repeatStart = target
	st.repeatPass = 1
	st.jumpedBack = true
	st.skipInnerRepeats = true
	st.dcDsFired = true
}

// findCoda prefers a coda after the current measure so a "To Coda" sign
// that also carries the coda glyph is not its own target.
func (e *expander) findCoda(label string) int {
	isTarget := func(m annotate.Annotation) string {
		if m.ToCoda != "" {
			return ""
		}
		return m.Coda
	}
	if i := e.findMarker(label, isTarget, e.st.pos); i >= 0 {
		return i
	}
	return e.findMarker(label, isTarget, -1)
}

// findMarker returns the first measure after `after` whose marker matches
// label, falling back to the first measure with any marker.
func (e *expander) findMarker(label string, marker func(annotate.Annotation) string, after int) int {
	first := -1
	for i := after + 1; i < len(e.anns); i++ {
		m := marker(e.anns[i])
		if m == "" {
			continue
		}
		if m == label {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}
