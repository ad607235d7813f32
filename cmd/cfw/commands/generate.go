package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/cfw/document"
	"github.com/teranos/cfw/generate"
)

// GenerateCmd writes the interface, component and mock headers
var GenerateCmd = &cobra.Command{
	Use:   "generate [function_file]",
	Short: "Generate the C wrapper headers",
	Long: `Generate C++ wrapper classes for the C functions named in the function list.

Each line of the function list names a function and the header declaring it:

  CloseHandle windows.h
  fopen       stdio.h    <cstdio>

Three headers are written below the base include directory: the interfaces
(ICWrappers.h), the components forwarding to the C functions and the gmock
mocks (both CWrappers.h). Aggregate classes combine several wrappers; MasterC
combines all of them.

Examples:
  cfw generate                        # function list from cfw.toml (cfunctions.txt)
  cfw generate api.txt -i include     # search headers in ./include
  cfw generate -n                     # skip the mock header
  cfw generate --dry-run              # print the headers instead of writing them`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	addWrapFlags(GenerateCmd.Flags())
	GenerateCmd.Flags().Bool("dry-run", false, "Print the generated headers instead of writing them")
	GenerateCmd.Flags().BoolP("json", "j", false, "Emit diagnostics as JSON events")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sink := newSink(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if !jsonOutput {
		showConfig(cmd, cfg)
	}

	g, err := generate.New(0)
	if err != nil {
		return err
	}
	res, err := g.Run(cmd.Context(), cfg, sink)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	switch {
	case dryRun && jsonOutput:
		return printDocumentsJSON(res)
	case dryRun:
		for _, kind := range document.Kinds {
			if text, ok := res.Documents[kind]; ok {
				fmt.Printf("// ---- %s\n%s\n", res.Paths[kind], text)
			}
		}
		return nil
	}

	if err := res.Write(sink); err != nil {
		return err
	}
	if !jsonOutput {
		showResult(cmd, res)
	}
	return nil
}

type documentOutput struct {
	Kind document.Kind `json:"kind"`
	Path string        `json:"path"`
	Text string        `json:"text"`
}

func printDocumentsJSON(res *generate.Result) error {
	enc := json.NewEncoder(os.Stdout)
	for _, kind := range document.Kinds {
		text, ok := res.Documents[kind]
		if !ok {
			continue
		}
		if err := enc.Encode(documentOutput{Kind: kind, Path: res.Paths[kind], Text: text}); err != nil {
			return fmt.Errorf("failed to encode %s document: %w", kind, err)
		}
	}
	return nil
}
