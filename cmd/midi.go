package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/midi"
	"github.com/jsphweid/scoreline/musicxml"
	"github.com/jsphweid/scoreline/sample"
)

var (
	midiFrom  int
	midiLimit int
)

func init() {
	midiCmd.Flags().IntVar(&midiFrom, "from", 0, "first tick of the excerpt")
	midiCmd.Flags().IntVar(&midiLimit, "limit", 0, "maximum notes per part (0 for all)")
	rootCmd.AddCommand(midiCmd)
}

var midiCmd = &cobra.Command{
	Use:   "midi <file> <out.mid>",
	Short: "Writes the timeline as a Standard MIDI File",
	Long:  `Writes a conductor track with tempo and meter plus one track per part.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, _, err := musicxml.ImportFile(args[0], importOptions())
		if err != nil {
			return err
		}
		if midiFrom > 0 || midiLimit > 0 {
			score = sample.Create(score, midiFrom, midiLimit)
		}
		if err := midi.WriteScoreFile(score, args[1]); err != nil {
			return err
		}
		fmt.Printf("wrote %d parts, %d notes to %s\n", len(score.Parts), score.NoteCount(), args[1])
		return nil
	},
}
