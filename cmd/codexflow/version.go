package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Schrodinger0/codex-flow-sub001/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codexflow version %s\n", version.Get())
	},
}
