package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Schrodinger0/codex-flow-sub001/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agent catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		agents, closeCatalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		defer closeCatalog()

		bold := color.New(color.Bold)
		for _, agent := range agents {
			name := agent.Name
			if name == "" {
				name = agent.ID
			}
			bold.Printf("%s", agent.ID)
			if agent.Default {
				fmt.Print(" (default)")
			}
			fmt.Printf("\n  name:         %s\n", name)
			fmt.Printf("  capabilities: %s\n", strings.Join(agent.Capabilities.Core, ", "))
		}
		return nil
	},
}
