package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Schrodinger0/codex-flow-sub001/internal/config"
	"github.com/Schrodinger0/codex-flow-sub001/internal/ledger"
	"github.com/Schrodinger0/codex-flow-sub001/internal/pipeline"
	"github.com/Schrodinger0/codex-flow-sub001/internal/selector"
)

var (
	runStrict  bool
	runVerbose bool
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Plan and execute a goal end to end",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if runVerbose {
			cfg.Executor.Verbose = true
		}
		if runStrict {
			cfg.Executor.StrictTools = true
		}

		agents, closeCatalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		defer closeCatalog()

		log, err := openEventLog(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		store, err := buildMemory(cfg)
		if err != nil {
			return err
		}

		audit, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer audit.Close()
		if err := audit.Migrate(); err != nil {
			return err
		}

		exec, err := buildExecutor(cfg, log, store)
		if err != nil {
			return err
		}

		p := pipeline.New(buildSelector(ctx, cfg), buildDecomposer(ctx, cfg, log), exec).
			WithEvents(log).
			WithMemory(store).
			WithLedger(audit).
			WithBounds(selector.Bounds{Min: cfg.Selector.MinAgents, Max: cfg.Selector.MaxAgents}).
			WithStrictTools(cfg.Executor.StrictTools)

		summary, err := p.Run(ctx, goal, agents)
		if err != nil {
			return err
		}

		printSummary(summary)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runStrict, "strict-tools", false, "Enforce agent tool policies")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Surface fallback warnings")
}

func printSummary(summary *pipeline.RunSummary) {
	bold := color.New(color.Bold)
	okColor := color.New(color.FgGreen)
	failColor := color.New(color.FgRed)

	bold.Printf("Goal: %s\n", summary.Goal)
	if summary.RunID != "" {
		fmt.Printf("Run:  %s\n", summary.RunID)
	}

	fmt.Printf("Agents (%d):\n", len(summary.Artifact.Agents))
	for _, agent := range summary.Artifact.Agents {
		fmt.Printf("  %-20s %s\n", agent.ID, agent.Reason)
	}

	if summary.DAGValid {
		okColor.Println("Plan graph: valid")
	} else {
		failColor.Printf("Plan graph: invalid (%s)\n", summary.DAGError)
	}

	fmt.Println("Results:")
	for _, result := range summary.Results {
		mark := okColor.Sprint("ok")
		if !result.OK {
			mark = failColor.Sprint("fail")
		}
		fmt.Printf("  [%s] %-12s %-10s %5dms  %s\n", mark, result.Alias, result.Engine, result.MS, result.Summary)
	}

	if summary.OK {
		okColor.Println("Run succeeded")
	} else {
		failColor.Println("Run finished with failures")
	}
}
