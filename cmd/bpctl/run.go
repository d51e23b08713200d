package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"blueprint/internal/engine"
	"blueprint/internal/game"
	"blueprint/internal/remote"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type runOptions struct {
	maxGas         int64
	remoteURL      string
	idempotencyKey string
	timeout        time.Duration
	vars           []string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a blueprint locally or on a remote engine",
		Long: "Execute a blueprint. Without --remote the run happens in process with the built-in node kinds.\n" +
			"The command exits non-zero unless the run completes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := loadBlueprint(cmd, args[0])
			if err != nil {
				return err
			}
			vars, err := parseVars(opts.vars)
			if err != nil {
				return err
			}
			cfg := engine.Config{MaxGas: opts.maxGas, InitialVariables: vars}

			logger := root.logger(cmd)
			var res engine.Result
			runID := ""
			if opts.remoteURL != "" {
				client := remote.NewClient(opts.remoteURL,
					remote.WithTimeout(opts.timeout),
					remote.WithIdempotencyKey(opts.idempotencyKey),
					remote.WithLogger(logger),
				)
				defer client.Close()
				res, runID, err = client.Execute(cmd.Context(), bp, cfg)
			} else {
				res, err = game.NewEngine(engine.WithLogger(logger)).ExecuteBlueprint(cmd.Context(), bp, cfg)
			}
			if err != nil {
				return err
			}

			if root.asJSON {
				if err := printJSON(cmd, res); err != nil {
					return err
				}
			} else if err := renderResult(cmd, runID, res); err != nil {
				return err
			}

			if res.Status != engine.StatusCompleted {
				return fmt.Errorf("run ended with status %s", res.Status)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.maxGas, "max-gas", 0, "gas budget for the run (default 1000)")
	cmd.Flags().StringVar(&opts.remoteURL, "remote", "", "base URL of a remote engine, e.g. http://localhost:8080")
	cmd.Flags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "key sent with remote runs so retries return the stored result")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "remote request timeout")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "initial variable as name=value; value is parsed as JSON when possible")
	return cmd
}

func parseVars(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", kv)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		vars[name] = parsed
	}
	return vars, nil
}

func renderResult(cmd *cobra.Command, runID string, res engine.Result) error {
	out := cmd.OutOrStdout()

	summary := fmt.Sprintf("Run %s: gas used %d, remaining %d", res.Status, res.GasUsed, res.GasRemaining)
	if runID != "" {
		summary = fmt.Sprintf("[%s] %s", runID, summary)
	}
	switch res.Status {
	case engine.StatusCompleted:
		fmt.Fprintln(out, pterm.Success.Sprint(summary))
	case engine.StatusOutOfGas:
		fmt.Fprintln(out, pterm.Warning.Sprint(summary))
	default:
		fmt.Fprintln(out, pterm.Error.Sprint(summary))
	}
	if res.Error != "" {
		fmt.Fprintln(out, pterm.Error.Sprint(res.Error))
	}

	logs := pterm.TableData{{"#", "Node", "Kind", "Gas", "Error"}}
	for i, l := range res.Logs {
		logs = append(logs, []string{strconv.Itoa(i + 1), l.NodeID, l.NodeKind, strconv.FormatInt(l.GasUsed, 10), l.Error})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(logs).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)

	if len(res.FinalState) > 0 {
		keys := make([]string, 0, len(res.FinalState))
		for k := range res.FinalState {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		state := pterm.TableData{{"Variable", "Value"}}
		for _, k := range keys {
			state = append(state, []string{k, fmt.Sprint(res.FinalState[k])})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(state).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, table)
	}
	return nil
}
