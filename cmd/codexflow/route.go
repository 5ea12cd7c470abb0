package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Schrodinger0/codex-flow-sub001/internal/router"
)

var routeFiles []string

var routeCmd = &cobra.Command{
	Use:   "route [text]",
	Short: "Pre-filter agent candidates for a task or a set of files",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()

		if len(routeFiles) > 0 {
			decision := r.RouteFiles(routeFiles)
			printDecision("files", decision)
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("provide task text or --files")
		}

		decision := r.RouteTask(strings.Join(args, " "))
		printDecision("task", decision)
		return nil
	},
}

func init() {
	routeCmd.Flags().StringSliceVar(&routeFiles, "files", nil, "Route by file paths instead of task text")
}

func printDecision(input string, decision router.Decision) {
	fmt.Printf("stage:      %s\n", decision.Stage)
	if len(decision.Candidates) == 0 {
		fmt.Printf("candidates: none (%s matched no rules)\n", input)
		return
	}
	fmt.Printf("candidates: %s\n", strings.Join(decision.Candidates, ", "))
}
