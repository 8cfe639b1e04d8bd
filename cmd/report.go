package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/chord"
	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/musicxml"
	"github.com/jsphweid/scoreline/util"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [dir]",
	Short: "Creates a report",
	Long:  `Imports every score under dir ($SCORES_PATH by default) and prints per-file counts.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := constants.GetScoresDir()
		if len(args) == 1 {
			dir = args[0]
		}
		paths, err := util.GatherAllScorePaths(dir, 0)
		if err != nil {
			return err
		}
		report(cmd.OutOrStdout(), paths)
		return nil
	},
}

type scoreReport struct {
	path           string
	failed         bool
	numEvents      int
	numNotes       int
	numWarnings    int
	numChords      int
	distinctChords int
	length         int
}

func analyzeScore(path string) scoreReport {
	r := scoreReport{path: path}
	score, warnings, err := musicxml.ImportFile(path, importOptions())
	if err != nil {
		logger.Error("could not import", "path", path, "err", err)
		r.failed = true
		return r
	}
	for _, p := range score.Parts {
		r.numEvents += len(p.Events)
	}
	chords := chord.GetScoreChords(score)
	r.numNotes = score.NoteCount()
	r.numWarnings = len(warnings)
	r.numChords = len(chords)
	r.distinctChords = chord.CountDistinct(chords)
	r.length = score.Length()
	return r
}

func report(w io.Writer, paths []string) {
	var reports []scoreReport
	var failed int
	for _, path := range paths {
		r := analyzeScore(path)
		if r.failed {
			failed++
			continue
		}
		reports = append(reports, r)
		fmt.Fprintf(w, "%s: events %d, notes %d, chords %d (%d distinct), warnings %d, length %d\n",
			filepath.Base(r.path), r.numEvents, r.numNotes, r.numChords, r.distinctChords, r.numWarnings, r.length)
	}

	var notes, warnings []int
	for _, r := range reports {
		notes = append(notes, r.numNotes)
		warnings = append(warnings, r.numWarnings)
	}
	fmt.Fprintf(w, "files: %d imported, %d failed\n", len(reports), failed)
	fmt.Fprintf(w, "total notes: %v\n", util.Sum(notes))
	fmt.Fprintf(w, "total warnings: %v\n", util.Sum(warnings))
}
