package main

import (
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("authflow\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
		},
	}
}
