package main

import (
	"encoding/json"
	"fmt"
	"os"

	"blueprint/internal/engine"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	asJSON  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "bpctl",
		Short:         "Analyze and run blueprints",
		Long:          "bpctl validates blueprint files, runs them locally or on a remote engine, and lists the available node kinds.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity to stderr")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON instead of tables")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newRunCmd(opts),
		newKindsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

// loadBlueprint reads a blueprint file in the engine wire shape; "-" reads stdin.
func loadBlueprint(cmd *cobra.Command, path string) (engine.Blueprint, error) {
	var bp engine.Blueprint

	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return bp, fmt.Errorf("open blueprint: %w", err)
		}
		defer f.Close()
		in = f
	}

	if err := json.NewDecoder(in).Decode(&bp); err != nil {
		return bp, fmt.Errorf("decode blueprint %s: %w", path, err)
	}
	return bp, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
