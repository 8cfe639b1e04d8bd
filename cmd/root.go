package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/config"
	"github.com/jsphweid/scoreline/musicxml"
)

var (
	configPath string
	logLevel   string

	cfg    = config.Default()
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "scoreline",
	Short: "Flattens MusicXML scores into timelines",
	Long: `scoreline reads partwise MusicXML, plays back its repeats, endings and
D.C./D.S. jumps, and writes a flat tick-indexed timeline of notes, meters,
tempos and keys.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		level, err := config.ParseLevel(loaded.Log.Level)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvVar+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "overrides log.level from the config")
}

func importOptions() musicxml.Options {
	return musicxml.Options{
		Logger:          logger,
		Parallel:        cfg.Import.Parallel,
		CeilingFactor:   cfg.Import.CeilingFactor,
		DefaultVelocity: cfg.Import.DefaultVelocity,
	}
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
