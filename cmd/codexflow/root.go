package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codexflow",
	Short: "Goal planning and agent execution pipeline",
	Long: `Codexflow turns a goal into an executable multi-agent scenario.

It selects suitable agents from a catalog, decomposes the goal into a
dependency-checked task plan with per-agent orders, composes a 3-phase
scenario (Plan, Execute, Test & Validate), and runs each phase through the
execution adapter with remote-compute or local-simulation engines.

Planning can run heuristically, by deterministic rules, or delegated to a
generative backend (Anthropic API, AWS Bedrock, local Ollama, or a generic
CLI executor) with validation, bounded retry, and heuristic fallback.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(versionCmd)
}
