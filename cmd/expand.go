package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/musicxml"
)

func init() {
	rootCmd.AddCommand(expandCmd)
}

var expandCmd = &cobra.Command{
	Use:   "expand <file>",
	Short: "Prints the playback order of each part",
	Long:  `Prints, per part, the measure numbers in the order they are played.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "opening %s", args[0])
		}
		defer f.Close()

		parts, err := musicxml.Expansions(f, importOptions())
		if err != nil {
			return err
		}
		for _, p := range parts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.PartID, strings.Join(p.Measures, " "))
		}
		return nil
	},
}
