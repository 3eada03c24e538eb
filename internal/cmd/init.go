package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/tvscan/internal/config"
)

// NewInitCommand creates the 'tvscan init' command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .tvscan/config.yaml",
		Long: `Write the default configuration to <dir>/.tvscan/config.yaml.

An existing file is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	cmd.Flags().String("dir", ".", "Directory that will hold .tvscan/config.yaml")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	force, _ := cmd.Flags().GetBool("force")

	path := filepath.Join(dir, config.HomeDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
