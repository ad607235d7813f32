// Package commands implements the cfw subcommands.
package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teranos/cfw/config"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/document"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/generate"
	"github.com/teranos/cfw/logger"
)

// Configuration keys overridden by command-line flags
var flagKeys = map[string]string{
	"include-path":        "input.include_path",
	"base-namespace":      "wrap.base_namespace",
	"mock-namespace":      "wrap.mock_namespace",
	"component-namespace": "wrap.component_namespace",
	"func-prefix":         "wrap.function_prefix",
	"interface-prefix":    "wrap.interface_prefix",
	"component-suffix":    "wrap.component_suffix",
	"base-include":        "output.base_include",
	"interface-dir":       "output.interface_dir",
	"component-dir":       "output.component_dir",
	"mock-dir":            "output.mock_dir",
	"templates":           "templates.dir",
}

// addWrapFlags registers the naming and layout options of generate and watch.
func addWrapFlags(flags *pflag.FlagSet) {
	flags.StringP("include-path", "i", "", "Header search path (default: INCLUDE environment variable)")
	flags.BoolP("disable-gmock", "n", false, "Do not generate the mock header")
	flags.StringP("base-namespace", "b", "", "Namespace enclosing every generated class")
	flags.StringP("mock-namespace", "m", "", "Namespace of the mock classes")
	flags.StringP("component-namespace", "c", "", "Namespace of the component classes")
	flags.StringP("func-prefix", "p", "", "Prefix of the generated method names")
	flags.String("interface-prefix", "", "Prefix of the interface class names")
	flags.StringP("component-suffix", "s", "", "Suffix of the component class names")
	flags.String("base-include", "", "Directory receiving the generated headers")
	flags.StringP("interface-dir", "t", "", "Interface header directory below the base include")
	flags.StringP("component-dir", "o", "", "Component header directory below the base include")
	flags.StringP("mock-dir", "k", "", "Mock header directory below the base include")
	flags.String("templates", "", "Directory of template overrides")
}

// loadConfig reads the configuration with command-line overrides applied.
// The optional positional argument names the function list.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input.FunctionList = args[0]
	}
	if disable, _ := cmd.Flags().GetBool("disable-gmock"); disable {
		cfg.Wrap.GenerateMocks = false
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

// newSink returns the diagnostics sink of a command: JSON events on stdout,
// mirrored to the JSON log on stderr, with --json and terminal output otherwise.
func newSink(cmd *cobra.Command) diag.Sink {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return diag.WithLogging(diag.NewJSONSink(os.Stdout))
	}
	verbosity, _ := cmd.Flags().GetCount("verbose")
	return diag.NewCLISink(verbosity)
}

// showConfig prints the effective configuration at -vv.
func showConfig(cmd *cobra.Command, cfg *config.Config) {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if !logger.ShouldOutput(verbosity, logger.OutputConfig) {
		return
	}
	source := cfg.Path
	if source == "" {
		source = "defaults"
	}
	pterm.Info.Printf("configuration from %s\n", source)
	if data, err := cfg.Marshal(); err == nil {
		pterm.Println(string(data))
	}
}

// showResult prints what a generation found, depending on the verbosity.
func showResult(cmd *cobra.Command, res *generate.Result) {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if logger.ShouldOutput(verbosity, logger.OutputCache) {
		pterm.Printf("parsed %d of %d headers (%d cached)\n", res.Parsed, len(res.Headers), res.Cached)
	}
	if logger.ShouldOutput(verbosity, logger.OutputConfig) {
		for _, kind := range document.Kinds {
			if src, ok := res.Templates[kind]; ok {
				pterm.Printf("%s template: %s\n", kind, src)
			}
		}
	}
	if logger.ShouldOutput(verbosity, logger.OutputDeclarations) {
		for _, p := range res.Prototypes {
			pterm.Printf("  %s: %s\n", p.Pos(), p.String())
		}
	}
	if !logger.ShouldOutput(verbosity, logger.OutputUserStatus) {
		return
	}
	pterm.Success.Printf("Wrapped %d functions in %d aggregates\n", len(res.Wrappers), len(res.Aggregates))
	if len(res.Unmockable) > 0 {
		pterm.Warning.Printf("No mock for %d classes (see diagnostics)\n", len(res.Unmockable))
	}
}
