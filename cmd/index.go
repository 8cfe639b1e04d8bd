package cmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/db"
	"github.com/jsphweid/scoreline/file"
	"github.com/jsphweid/scoreline/model"
	"github.com/jsphweid/scoreline/musicxml"
	"github.com/jsphweid/scoreline/util"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [dir] [maxNum]",
	Short: "Creates index",
	Long:  `Imports every score under dir and stores a summary per file in DynamoDB.`,
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := constants.GetScoresDir()
		if len(args) >= 1 {
			dir = args[0]
		}
		var maxNum int
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrap(err, "maxNum")
			}
			maxNum = n
		}
		client, err := db.New(cfg.Dynamo)
		if err != nil {
			return err
		}
		_, err = Index(client, dir, maxNum)
		return err
	},
}

// Index stores a summary of every score under dir and returns what it
// stored.
func Index(client *db.Client, dir string, maxNum int) ([]model.ScoreSummary, error) {
	paths, err := util.GatherAllScorePaths(dir, maxNum)
	if err != nil {
		return nil, err
	}
	fileIDs := file.CreateFileIDMap(paths)
	sums := summaries(fileIDs)
	if err := client.PutScoreSummaries(sums); err != nil {
		return nil, err
	}
	fmt.Printf("indexed %d of %d scores\n", len(sums), len(paths))
	return sums, nil
}

// summaries imports each file, keyed by score ID. Files that fail to
// import are logged and skipped.
func summaries(fileIDs map[string]string) []model.ScoreSummary {
	var res []model.ScoreSummary
	for _, id := range util.GetSortedKeys(fileIDs) {
		path := fileIDs[id]
		score, warnings, err := musicxml.ImportFile(path, importOptions())
		if err != nil {
			logger.Error("could not import", "path", path, "err", err)
			continue
		}
		res = append(res, model.Summarize(id, path, score, warnings))
	}
	return res
}
