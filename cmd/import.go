package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/codec"
	"github.com/jsphweid/scoreline/musicxml"
)

var (
	importFormat   string
	importParallel bool
)

func init() {
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "json", "output format: json, yaml or cbor")
	importCmd.Flags().BoolVar(&importParallel, "parallel", false, "materialize parts concurrently")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Prints the timeline of a score",
	Long:  `Imports a MusicXML file and prints its timeline. Warnings go to stderr.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := codec.ParseFormat(importFormat)
		if err != nil {
			return err
		}
		opts := importOptions()
		if cmd.Flags().Changed("parallel") {
			opts.Parallel = importParallel
		}
		score, warnings, err := musicxml.ImportFile(args[0], opts)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		return codec.Encode(cmd.OutOrStdout(), format, score)
	},
}
