package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Schrodinger0/codex-flow-sub001/internal/config"
	"github.com/Schrodinger0/codex-flow-sub001/internal/dag"
	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/internal/scenario"
	"github.com/Schrodinger0/codex-flow-sub001/internal/selector"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Produce the planning artifact and scenario without executing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		agents, closeCatalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		defer closeCatalog()

		sel := buildSelector(ctx, cfg)
		bounds := selector.Bounds{Min: cfg.Selector.MinAgents, Max: cfg.Selector.MaxAgents}
		selected, err := sel.Select(ctx, goal, agents, bounds)
		if err != nil {
			return fmt.Errorf("selecting agents: %w", err)
		}

		dec := buildDecomposer(ctx, cfg, events.NopSink{})
		artifact, err := dec.Decompose(ctx, goal, selected, agents)
		if err != nil {
			return fmt.Errorf("decomposing goal: %w", err)
		}

		if result := dag.Validate(artifact); !result.OK {
			warnColor.Fprintf(os.Stderr, "warn: plan graph invalid: %v\n", result.Err)
		}

		composed := scenario.Compose(goal, artifact.Agents, artifact.Plan, artifact.Orders)

		if planJSON {
			payload := map[string]any{"artifact": artifact, "scenario": composed}
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Goal: %s\n\n", goal)
		for _, phase := range composed.Phases {
			mode := "serial"
			if phase.Parallel {
				mode = "parallel"
			}
			fmt.Printf("%s (%s)\n", phase.Name, mode)
			for alias, tasks := range phase.Tasks {
				for _, task := range tasks {
					fmt.Printf("  %-12s %s\n", alias, task)
				}
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Emit the artifact and scenario as JSON")
}
