package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cfw/config"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/generate"
	"github.com/teranos/cfw/prototype"
)

// PrototypesCmd shows the normalized prototypes of the listed functions
var PrototypesCmd = &cobra.Command{
	Use:   "prototypes [function_file]",
	Short: "Show the prototypes found for the function list",
	Long: `Look up the functions of the function list in their headers and print the
normalized prototypes the wrappers would be generated from.

Functions that cannot be found are listed after the table; unlike generate
this is not an error.

Examples:
  cfw prototypes                 # table of the listed functions
  cfw prototypes --all           # every wrappable function of the listed headers
  cfw prototypes --yaml > api.yaml
  cfw prototypes --manifest functions.toml   # keep the found functions as a TOML list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrototypes,
}

func init() {
	PrototypesCmd.Flags().StringP("include-path", "i", "", "Header search path (default: INCLUDE environment variable)")
	PrototypesCmd.Flags().Bool("all", false, "Show every function of the listed headers")
	PrototypesCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	PrototypesCmd.Flags().Bool("yaml", false, "Output as YAML")
	PrototypesCmd.Flags().String("manifest", "", "Write the listed functions that were found to a TOML function list")
}

func runPrototypes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")

	// Structured output keeps stdout parseable
	var sink diag.Sink = diag.WithLogging(nil)
	if !jsonOutput && !yamlOutput {
		sink = newSink(cmd)
	}

	g, err := generate.New(0)
	if err != nil {
		return err
	}
	found, err := g.Find(cmd.Context(), cfg, all, sink)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("manifest"); path != "" {
		if err := writeManifest(path, found, sink); err != nil {
			return err
		}
	}

	descs := make([]prototype.Description, len(found.Prototypes))
	for i, p := range found.Prototypes {
		descs[i] = p.Describe()
	}

	switch {
	case jsonOutput:
		data, err := json.MarshalIndent(descs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal prototypes to JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case yamlOutput:
		data, err := yaml.Marshal(descs)
		if err != nil {
			return fmt.Errorf("failed to marshal prototypes to YAML: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}

	if len(found.Prototypes) > 0 {
		rows := pterm.TableData{{"Function", "Returns", "Arguments", "Declared at"}}
		for i, p := range found.Prototypes {
			rows = append(rows, []string{p.Name(), descs[i].ReturnType, argumentList(descs[i]), descs[i].Position.String()})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}
	}
	if len(found.Missing) > 0 {
		pterm.Warning.Printf("Not found: %s\n", strings.Join(found.Missing, ", "))
	}
	return nil
}

// writeManifest saves the function list, minus the functions not found, in
// the TOML format generate reads back.
func writeManifest(path string, found *generate.Found, sink diag.Sink) error {
	data, err := found.List.Without(found.Missing...).Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	sink.Wrote(path)
	return nil
}

func argumentList(d prototype.Description) string {
	args := make([]string, len(d.Arguments))
	for i, a := range d.Arguments {
		args[i] = a.String()
	}
	return strings.Join(args, ", ")
}
