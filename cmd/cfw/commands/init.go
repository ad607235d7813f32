package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cfw/config"
)

// InitCmd writes a starter configuration file
var InitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter cfw.toml",
	Long: `Write a configuration file holding every default, ready to be edited.

An existing file is only replaced with --force; the previous version is kept
as a numbered backup (cfw.toml.back1 being the most recent).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	InitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.FileName
	if len(args) > 0 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Defaults().Save(path); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}
