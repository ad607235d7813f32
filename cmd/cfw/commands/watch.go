package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cfw/config"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/errors"
	"github.com/teranos/cfw/generate"
	"github.com/teranos/cfw/logger"
)

// WatchCmd regenerates the headers whenever an input changes
var WatchCmd = &cobra.Command{
	Use:   "watch [function_file]",
	Short: "Regenerate when the configuration, function list or headers change",
	Long: `Generate the wrapper headers, then keep regenerating them whenever the
configuration file, the function list or one of the wrapped C headers changes.
Unchanged headers are not parsed again.

A failing generation is reported and watching continues. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addWrapFlags(WatchCmd.Flags())
	WatchCmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debounce, _ := cmd.Flags().GetDuration("debounce")
	sink := newSink(cmd)
	log := logger.ComponentLogger("watch")

	g, err := generate.New(0)
	if err != nil {
		return err
	}

	for {
		files, err := regenerate(ctx, g, cmd, args, sink)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			pterm.Error.Println(err.Error())
			for _, hint := range errors.GetAllHints(err) {
				pterm.Info.Println(hint)
			}
		}

		changed, err := waitForChange(ctx, files, debounce)
		if err != nil {
			return err
		}
		if changed == nil {
			return nil
		}
		log.Infow("Inputs changed, regenerating", "files", changed)
	}
}

// regenerate runs one generation and returns the files whose change should
// trigger the next one. The files are returned even when generation fails.
func regenerate(ctx context.Context, g *generate.Generator, cmd *cobra.Command, args []string, sink diag.Sink) ([]string, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		// watch the file that failed to load
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.FileName
		}
		return []string{path}, err
	}

	files := []string{cfg.Input.FunctionList}
	if cfg.Path != "" {
		files = append(files, cfg.Path)
	}
	if cfg.Templates.Dir != "" {
		matches, _ := filepath.Glob(filepath.Join(cfg.Templates.Dir, "*.tmpl"))
		files = append(files, matches...)
	}

	showConfig(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return files, err
	}
	found, err := g.Find(ctx, cfg, false, sink)
	if err != nil {
		return files, err
	}
	// headers are watched even when a listed function is missing from them
	files = append(files, found.Headers...)
	if err := found.Err(); err != nil {
		return files, err
	}
	res, err := g.Generate(cfg, found, sink)
	if err != nil {
		return files, err
	}
	if err := res.Write(sink); err != nil {
		return files, err
	}
	showResult(cmd, res)
	pterm.Info.Printf("Watching %d files\n", len(files))
	return files, nil
}

// waitForChange blocks until one of files changes and returns the changed
// files, or nil when ctx is cancelled.
func waitForChange(ctx context.Context, files []string, debounce time.Duration) ([]string, error) {
	changes := make(chan []string, 1)
	w, err := config.NewWatcher(files, debounce, func(changed []string) {
		select {
		case changes <- changed:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	w.Start()
	defer w.Stop()

	select {
	case <-ctx.Done():
		return nil, nil
	case changed := <-changes:
		return changed, nil
	}
}
