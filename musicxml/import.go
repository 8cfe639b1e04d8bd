// Package musicxml imports partwise MusicXML documents into a model.Score.
//
// Each part is annotated, expanded into playback order and materialized on
// its own; the parts' time signature, tempo and key lists are merged
// afterwards. Anything short of a wrong document shape is recovered from
// and reported as a model.Warning.
package musicxml

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/jsphweid/scoreline/annotate"
	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/expand"
	"github.com/jsphweid/scoreline/materialize"
	"github.com/jsphweid/scoreline/model"
	"github.com/jsphweid/scoreline/util"
	"github.com/jsphweid/scoreline/xmltree"
)

type Options struct {
	Logger *slog.Logger
	// materialize parts on separate goroutines
	Parallel        bool
	CeilingFactor   int
	DefaultVelocity int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.CeilingFactor <= 0 {
		o.CeilingFactor = constants.CeilingFactor
	}
	if o.DefaultVelocity <= 0 {
		o.DefaultVelocity = constants.DefaultVelocity
	}
	return o
}

// StructureError reports a document the importer cannot read at all.
type StructureError struct {
	Root   string
	Reason string
}

func (e *StructureError) Error() string {
	if e.Root == "" {
		return "unsupported document: " + e.Reason
	}
	return fmt.Sprintf("unsupported document <%s>: %s", e.Root, e.Reason)
}

func IsStructureError(err error) bool {
	var se *StructureError
	return errors.As(err, &se)
}

func ImportFile(path string, opts Options) (*model.Score, []model.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	score, warnings, err := Import(f, opts)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "importing %s", path)
	}
	if score.Metadata.Source == "" {
		score.Metadata.Source = path
	}
	return score, warnings, nil
}

// Import reads a whole document. On error no score is returned.
func Import(r io.Reader, opts Options) (*model.Score, []model.Warning, error) {
	opts = opts.withDefaults()
	doc, err := load(r)
	if err != nil {
		return nil, nil, err
	}

	global := doc.divisions()
	score := model.NewScore(doc.metadata(), model.Settings{TicksPerQuarter: global})
	names := doc.partNames()

	var warnings []model.Warning
	jobs := make([]partJob, len(doc.parts))
	for i, p := range doc.parts {
		id := p.Attr("id")
		if id == "" {
			id = "P" + strconv.Itoa(i+1)
			warnings = append(warnings, model.Warning{PartID: id, Message: "part without id"})
		}
		name, ok := names[id]
		if !ok {
			warnings = append(warnings, model.Warning{PartID: id, Message: "part missing from part-list"})
			name = id
		}
		jobs[i] = partJob{
			part:     score.AddPart(id, name),
			measures: p.FindAll("measure"),
		}
	}

	mopts := materialize.Options{
		GlobalDivisions: global,
		DefaultVelocity: opts.DefaultVelocity,
		Logger:          opts.Logger,
	}
	run := func(j *partJob) {
		order := expand.Expand(annotate.Annotate(j.measures), expand.WithCeiling(opts.CeilingFactor))
		opts.Logger.Debug("expanded part", "part", j.part.ID, "measures", len(j.measures), "played", len(order))
		j.result = materialize.Part(j.part, j.measures, order, mopts)
	}
	if opts.Parallel {
		var wg sync.WaitGroup
		for i := range jobs {
			wg.Add(1)
			go func(j *partJob) {
				defer wg.Done()
				run(j)
			}(&jobs[i])
		}
		wg.Wait()
	} else {
		for i := range jobs {
			run(&jobs[i])
		}
	}

	for _, w := range warnings {
		opts.Logger.Warn("import anomaly", "part", w.PartID, "message", w.Message)
	}
	for _, j := range jobs {
		warnings = append(warnings, j.result.Warnings...)
	}
	conflicts, err := mergeTimelines(score, jobs)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range conflicts {
		opts.Logger.Warn("import anomaly", "part", w.PartID, "message", w.Message)
	}
	warnings = append(warnings, conflicts...)

	opts.Logger.Info("imported score",
		"title", score.Metadata.Title,
		"parts", len(score.Parts),
		"notes", score.NoteCount(),
		"ticks_per_quarter", global,
		"warnings", len(warnings))
	return score, warnings, nil
}

type partJob struct {
	part     *model.Part
	measures []*xmltree.Node
	result   *materialize.Result
}

type document struct {
	root  *xmltree.Node
	parts []*xmltree.Node
}

func load(r io.Reader) (*document, error) {
	root, err := xmltree.Parse(r)
	if err != nil {
		return nil, errors.WithStack(&StructureError{Reason: err.Error()})
	}
	switch root.Tag {
	case "score-partwise":
	case "score-timewise":
		return nil, errors.WithStack(&StructureError{Root: root.Tag, Reason: "timewise scores are not supported"})
	default:
		return nil, errors.WithStack(&StructureError{Root: root.Tag, Reason: "expected score-partwise"})
	}
	parts := root.FindAll("part")
	if len(parts) == 0 {
		return nil, errors.WithStack(&StructureError{Root: root.Tag, Reason: "no parts"})
	}
	return &document{root: root, parts: parts}, nil
}

// divisions is the lcm of every divisions value in every part.
func (d *document) divisions() int {
	var all []int
	for _, p := range d.parts {
		for _, m := range p.FindAll("measure") {
			for _, attrs := range m.FindAll("attributes") {
				if v, ok := attrs.ChildInt("divisions"); ok && v > 0 {
					all = append(all, v)
				}
			}
		}
	}
	return util.Lcm(all...)
}

func (d *document) metadata() model.Metadata {
	var meta model.Metadata
	if title, ok := d.root.Find("work").ChildText("work-title"); ok && title != "" {
		meta.Title = title
	} else if title, ok := d.root.ChildText("movement-title"); ok {
		meta.Title = title
	}
	ident := d.root.Find("identification")
	for _, c := range ident.FindAll("creator") {
		if c.Attr("type") == "composer" || meta.Composer == "" {
			meta.Composer = c.Text()
		}
	}
	if src, ok := ident.ChildText("source"); ok {
		meta.Source = src
	}
	return meta
}

func (d *document) partNames() map[string]string {
	res := make(map[string]string)
	for _, sp := range d.root.Find("part-list").FindAll("score-part") {
		name, _ := sp.ChildText("part-name")
		res[sp.Attr("id")] = name
	}
	return res
}

type partTempo struct {
	model.Tempo
	partID string
}

// mergeTimelines folds every part's entries into the score in tick order,
// keeping only entries that change the previous value. Parts that set
// different tempos at the same tick are reported; the later part wins.
func mergeTimelines(score *model.Score, jobs []partJob) ([]model.Warning, error) {
	var sigs []model.TimeSignature
	var tempos []partTempo
	var keys []model.KeyCenter
	for _, j := range jobs {
		sigs = append(sigs, j.result.TimeSignatures...)
		for _, t := range j.result.Tempos {
			tempos = append(tempos, partTempo{Tempo: t, partID: j.part.ID})
		}
		keys = append(keys, j.result.KeyCenters...)
	}
	sort.SliceStable(sigs, func(a, b int) bool { return sigs[a].Tick < sigs[b].Tick })
	sort.SliceStable(tempos, func(a, b int) bool { return tempos[a].Tick < tempos[b].Tick })
	sort.SliceStable(keys, func(a, b int) bool { return keys[a].Tick < keys[b].Tick })

	for i, ts := range sigs {
		if i > 0 && sameMeter(sigs[i-1], ts) {
			continue
		}
		if err := score.AppendTimeSignature(ts); err != nil {
			return nil, err
		}
	}
	var conflicts []model.Warning
	for i, t := range tempos {
		if i > 0 && tempos[i-1].BPM == t.BPM {
			continue
		}
		if i > 0 && tempos[i-1].Tick == t.Tick && tempos[i-1].partID != t.partID {
			conflicts = append(conflicts, model.Warning{
				PartID: t.partID,
				Message: fmt.Sprintf("tempo %v at tick %d conflicts with %v from part %s",
					t.BPM, t.Tick, tempos[i-1].BPM, tempos[i-1].partID),
			})
		}
		if err := score.AppendTempo(t.Tempo); err != nil {
			return nil, err
		}
	}
	for i, k := range keys {
		if i > 0 && keys[i-1].Fifths == k.Fifths && keys[i-1].Mode == k.Mode {
			continue
		}
		if err := score.AppendKeyCenter(k); err != nil {
			return nil, err
		}
	}
	return conflicts, nil
}

func sameMeter(a, b model.TimeSignature) bool {
	return a.Numerator == b.Numerator && a.Denominator == b.Denominator
}

// Expansions reports each part's playback order without materializing it.
func Expansions(r io.Reader, opts Options) ([]model.ExpandedPart, error) {
	opts = opts.withDefaults()
	doc, err := load(r)
	if err != nil {
		return nil, err
	}
	var res []model.ExpandedPart
	for i, p := range doc.parts {
		id := p.Attr("id")
		if id == "" {
			id = "P" + strconv.Itoa(i+1)
		}
		measures := p.FindAll("measure")
		order := expand.Expand(annotate.Annotate(measures), expand.WithCeiling(opts.CeilingFactor))
		ep := model.ExpandedPart{PartID: id, Indices: order}
		for _, idx := range order {
			ep.Measures = append(ep.Measures, materialize.MeasureNumber(measures[idx], idx))
		}
		res = append(res, ep)
	}
	return res, nil
}
