// Package annotate extracts the structural markings of each measure of a
// part: repeat barlines, numbered endings and navigation markers. It does
// not interpret them; see package expand for that.
package annotate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/util"
	"github.com/jsphweid/scoreline/xmltree"
)

type Boundary int

const (
	BoundaryNone Boundary = iota
	BoundaryStart
	BoundaryStop
	BoundaryDiscontinue
)

func (b Boundary) String() string {
	switch b {
	case BoundaryStart:
		return "start"
	case BoundaryStop:
		return "stop"
	case BoundaryDiscontinue:
		return "discontinue"
	}
	return "none"
}

type JumpKind int

const (
	JumpNone JumpKind = iota
	JumpFine
	JumpDaCapo
	JumpDalSegno
	JumpToCoda
)

func (k JumpKind) String() string {
	switch k {
	case JumpFine:
		return "fine"
	case JumpDaCapo:
		return "da capo"
	case JumpDalSegno:
		return "dal segno"
	case JumpToCoda:
		return "to coda"
	}
	return "none"
}

// Annotation is the structural summary of one measure.
type Annotation struct {
	Index  int
	Number string

	RepeatForward  bool
	RepeatBackward bool
	RepeatTimes    int

	EndingNumbers  []int
	EndingBoundary Boundary
	// a stop or discontinue was present even though a start won
	EndingClosed bool

	Segno string
	Coda  string

	Fine     bool
	DaCapo   bool
	DalSegno string
	ToCoda   string
}

// Jump summarizes the navigation instruction carried by the measure. A
// measure carrying several reports only the first of Fine, To Coda, D.C.,
// D.S.; the expander reads the individual fields.
func (a Annotation) Jump() JumpKind {
	switch {
	case a.Fine:
		return JumpFine
	case a.ToCoda != "":
		return JumpToCoda
	case a.DaCapo:
		return JumpDaCapo
	case a.DalSegno != "":
		return JumpDalSegno
	}
	return JumpNone
}

func (a Annotation) HasStructure() bool {
	return a.RepeatForward || a.RepeatBackward ||
		len(a.EndingNumbers) > 0 || a.EndingBoundary != BoundaryNone ||
		a.Segno != "" || a.Coda != "" || a.Jump() != JumpNone
}

func (a Annotation) InEnding(pass int) bool {
	for _, n := range a.EndingNumbers {
		if n == pass {
			return true
		}
	}
	return false
}

func Annotate(measures []*xmltree.Node) []Annotation {
	res := make([]Annotation, len(measures))
	for i, m := range measures {
		res[i] = annotateMeasure(i, m)
	}
	return res
}

func annotateMeasure(index int, m *xmltree.Node) Annotation {
	a := Annotation{
		Index:       index,
		Number:      m.Attr("number"),
		RepeatTimes: constants.DefaultRepeatTimes,
	}
	if a.Number == "" {
		a.Number = strconv.Itoa(index + 1)
	}

	var sawStart, sawStop, sawDiscontinue bool
	for _, bl := range m.FindAll("barline") {
		if rep := bl.Find("repeat"); rep != nil {
			switch rep.Attr("direction") {
			case "forward":
				a.RepeatForward = true
			case "backward":
				a.RepeatBackward = true
				if times, ok := rep.AttrInt("times"); ok {
					a.RepeatTimes = util.Max(times, 1)
				}
			}
		}
		if end := bl.Find("ending"); end != nil {
			for _, n := range ParseEndingNumbers(end.Attr("number")) {
				a.EndingNumbers = appendUnique(a.EndingNumbers, n)
			}
			switch end.Attr("type") {
			case "start":
				sawStart = true
			case "stop":
				sawStop = true
			case "discontinue":
				sawDiscontinue = true
			}
		}
	}
	sort.Ints(a.EndingNumbers)

	switch {
	case sawStart:
		a.EndingBoundary = BoundaryStart
		a.EndingClosed = sawStop || sawDiscontinue
	case sawStop:
		a.EndingBoundary = BoundaryStop
	case sawDiscontinue:
		a.EndingBoundary = BoundaryDiscontinue
	}

	for _, dir := range m.FindAll("direction") {
		for _, dt := range dir.FindAll("direction-type") {
			if seg := dt.Find("segno"); seg != nil && a.Segno == "" {
				a.Segno = label(seg.Attr("id"))
			}
			if coda := dt.Find("coda"); coda != nil && a.Coda == "" {
				a.Coda = label(coda.Attr("id"))
			}
			for _, w := range dt.FindAll("words") {
				a.applyWords(w.Text())
			}
		}
		if snd := dir.Find("sound"); snd != nil {
			a.applySound(snd)
		}
	}
	for _, snd := range m.FindAll("sound") {
		a.applySound(snd)
	}
	return a
}

// applySound reads the playback attributes of a <sound> element. These take
// precedence over anything inferred from words.
func (a *Annotation) applySound(snd *xmltree.Node) {
	if snd.HasAttr("segno") {
		a.Segno = label(snd.Attr("segno"))
	}
	if snd.HasAttr("coda") {
		a.Coda = label(snd.Attr("coda"))
	}
	if snd.HasAttr("fine") {
		a.Fine = snd.Attr("fine") != "no"
	}
	if snd.Attr("dacapo") == "yes" {
		a.DaCapo = true
	}
	if snd.HasAttr("dalsegno") {
		a.DalSegno = label(snd.Attr("dalsegno"))
	}
	if snd.HasAttr("tocoda") {
		a.ToCoda = label(snd.Attr("tocoda"))
	}
}

var (
	fineWords     = regexp.MustCompile(`^fine\.?$`)
	daCapoWords   = regexp.MustCompile(`^(d\.\s*c\.|da\s+capo)`)
	dalSegnoWords = regexp.MustCompile(`^(d\.\s*s\.|dal\s+segno)`)
	toCodaWords   = regexp.MustCompile(`^(to|al)\s+coda`)
)

func (a *Annotation) applyWords(text string) {
	w := strings.ToLower(strings.Join(strings.Fields(text), " "))
	switch {
	case fineWords.MatchString(w):
		a.Fine = true
	case daCapoWords.MatchString(w):
		a.DaCapo = true
	case dalSegnoWords.MatchString(w):
		if a.DalSegno == "" {
			a.DalSegno = constants.DefaultMarkerLabel
		}
	case toCodaWords.MatchString(w):
		if a.ToCoda == "" {
			a.ToCoda = constants.DefaultMarkerLabel
		}
	}
}

func label(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "yes" {
		return constants.DefaultMarkerLabel
	}
	return s
}

// ParseEndingNumbers reads an <ending number> attribute such as "1", "1, 2"
// or "1-3". Unparseable tokens are ignored.
func ParseEndingNumbers(s string) []int {
	var res []int
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '.'
	}) {
		if lo, hi, ok := strings.Cut(tok, "-"); ok {
			from, err1 := strconv.Atoi(lo)
			to, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || from < 1 || to < from || to-from > 32 {
				continue
			}
			for n := from; n <= to; n++ {
				res = appendUnique(res, n)
			}
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil && n >= 1 {
			res = appendUnique(res, n)
		}
	}
	return res
}

func appendUnique(ns []int, n int) []int {
	for _, v := range ns {
		if v == n {
			return ns
		}
	}
	return append(ns, n)
}
