package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for tvscan
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tvscan",
		Short: "Incremental manifest builder for test vector directories",
		Long: `tvscan walks a directory of SKA test vector files, records every new
vector in an append-only CSV manifest and audits already-recorded vectors
for size drift.

Existing manifest lines are never rewritten. Re-running a scan over an
unchanged directory leaves the manifest byte-identical.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
