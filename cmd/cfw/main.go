package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/cfw/cmd/cfw/commands"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cfw",
	Short: "cfw - C function wrapper generator",
	Long: `cfw generates C++ interface, component and mock headers that wrap plain
C functions, so code calling the C API can be unit tested against mocks.

Available commands:
  generate   - Generate the wrapper headers
  prototypes - Show the prototypes found for the function list
  init       - Write a starter cfw.toml
  watch      - Regenerate when the configuration, function list or headers change
  version    - Show version information

Examples:
  cfw init                          # Write cfw.toml with defaults
  cfw generate cfunctions.txt       # Generate src/Base/ICWrappers.h and friends
  cfw generate -n -b Platform       # No mocks, classes in namespace Platform
  cfw prototypes --all              # Everything wrappable in the listed headers`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbosity), "trace", logger.ShouldLogTrace(verbosity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default: cfw.toml searched upward)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.PrototypesCmd)
	rootCmd.AddCommand(commands.InitCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
