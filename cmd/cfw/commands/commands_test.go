package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cfw/config"
	"github.com/teranos/cfw/diag"
	"github.com/teranos/cfw/funclist"
	"github.com/teranos/cfw/generate"
)

// newTestCommand builds a fresh command so flag state does not leak between tests.
func newTestCommand(run func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: run, SilenceUsage: true, SilenceErrors: true}
	addWrapFlags(cmd.Flags())
	cmd.Flags().String("config", "", "")
	cmd.Flags().CountP("verbose", "v", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().BoolP("json", "j", false, "")
	cmd.Flags().Bool("all", false, "")
	cmd.Flags().Bool("yaml", false, "")
	cmd.Flags().BoolP("force", "f", false, "")
	return cmd
}

// project writes a header and a function list into a fresh working directory.
func project(t *testing.T) string {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll("include", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("include", "foo.h"), []byte("int Foo(int a);\nvoid Bar(void);\n"), 0o644))
	require.NoError(t, os.WriteFile("cfunctions.txt", []byte("Foo foo.h\n"), 0o644))
	return dir
}

func TestLoadConfigFlags(t *testing.T) {
	project(t)

	var cfg *config.Config
	cmd := newTestCommand(func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd, args)
		return err
	})
	cmd.SetArgs([]string{"api.txt", "-b", "Platform", "-n", "-p", "do", "-k", "Mocks", "-i", "include"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "api.txt", cfg.Input.FunctionList)
	assert.Equal(t, "Platform", cfg.Wrap.BaseNamespace)
	assert.Equal(t, "do", cfg.Wrap.FunctionPrefix)
	assert.Equal(t, "Mocks", cfg.Output.MockDir)
	assert.Equal(t, "include", cfg.Input.IncludePath)
	assert.False(t, cfg.Wrap.GenerateMocks)

	// untouched flags leave the defaults alone
	assert.Equal(t, "Component", cfg.Wrap.ComponentNamespace)
	assert.Equal(t, "Wrapper", cfg.Wrap.ComponentSuffix)
}

func TestLoadConfigFileAndFlag(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile(config.FileName, []byte("[wrap]\nbase_namespace = \"FromFile\"\nfunction_prefix = \"file\"\n"), 0o644))

	var cfg *config.Config
	cmd := newTestCommand(func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd, args)
		return err
	})
	cmd.SetArgs([]string{"-p", "flag"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "FromFile", cfg.Wrap.BaseNamespace)
	assert.Equal(t, "flag", cfg.Wrap.FunctionPrefix)
	assert.True(t, cfg.Wrap.GenerateMocks)
	assert.Equal(t, "cfunctions.txt", cfg.Input.FunctionList)
}

func TestGenerateWritesHeaders(t *testing.T) {
	project(t)

	cmd := newTestCommand(runGenerate)
	cmd.SetArgs([]string{"-i", "include"})
	require.NoError(t, cmd.Execute())

	iface, err := os.ReadFile(filepath.Join("src", "Base", "ICWrappers.h"))
	require.NoError(t, err)
	assert.Contains(t, string(iface), "class IFoo")
	assert.Contains(t, string(iface), "#include <foo.h>")

	component, err := os.ReadFile(filepath.Join("src", "Base", "Component", "CWrappers.h"))
	require.NoError(t, err)
	assert.Contains(t, string(component), "FooWrapper")

	mock, err := os.ReadFile(filepath.Join("src", "Base", "Mock", "CWrappers.h"))
	require.NoError(t, err)
	assert.Contains(t, string(mock), "MOCK_CONST_METHOD1(myFoo")
}

func TestGenerateDisableMocks(t *testing.T) {
	project(t)

	cmd := newTestCommand(runGenerate)
	cmd.SetArgs([]string{"-i", "include", "-n"})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join("src", "Base", "ICWrappers.h"))
	assert.NoFileExists(t, filepath.Join("src", "Base", "Mock", "CWrappers.h"))
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	project(t)

	cmd := newTestCommand(runGenerate)
	cmd.SetArgs([]string{"-i", "include", "--dry-run"})
	require.NoError(t, cmd.Execute())

	assert.NoDirExists(t, "src")
}

func TestGenerateMissingFunction(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile("cfunctions.txt", []byte("Foo foo.h\nBaz foo.h\n"), 0o644))

	cmd := newTestCommand(runGenerate)
	cmd.SetArgs([]string{"-i", "include"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Baz")
	assert.NoDirExists(t, "src")
}

func TestRegenerateWatchesHeadersOnFailure(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile("cfunctions.txt", []byte("Foo foo.h\nBaz foo.h\n"), 0o644))

	cmd := newTestCommand(nil)
	require.NoError(t, cmd.ParseFlags([]string{"-i", "include"}))
	g, err := generate.New(0)
	require.NoError(t, err)

	files, err := regenerate(context.Background(), g, cmd, nil, diag.NewRecorder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Baz")
	assert.Contains(t, files, "cfunctions.txt")

	var watched []string
	for _, f := range files {
		watched = append(watched, filepath.Base(f))
	}
	assert.Contains(t, watched, "foo.h")
	assert.NoDirExists(t, "src")

	// fixing the header makes the next round succeed
	require.NoError(t, os.WriteFile(filepath.Join("include", "foo.h"), []byte("int Foo(int a);\nint Baz(void);\n"), 0o644))
	files, err = regenerate(context.Background(), g, cmd, nil, diag.NewRecorder())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("src", "Base", "ICWrappers.h"))
	assert.Contains(t, files, "cfunctions.txt")
}

func TestPrototypesReportsMissingWithoutFailing(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile("cfunctions.txt", []byte("Foo foo.h\nBaz foo.h\n"), 0o644))

	cmd := newTestCommand(runPrototypes)
	cmd.SetArgs([]string{"-i", "include", "--yaml"})
	require.NoError(t, cmd.Execute())
}

func TestPrototypesWritesManifest(t *testing.T) {
	project(t)
	require.NoError(t, os.WriteFile("cfunctions.txt", []byte("Foo foo.h\nBaz foo.h\n"), 0o644))

	cmd := newTestCommand(runPrototypes)
	cmd.Flags().String("manifest", "", "")
	cmd.SetArgs([]string{"-i", "include", "--yaml", "--manifest", "functions.toml"})
	require.NoError(t, cmd.Execute())

	list, err := funclist.Load("functions.toml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo"}, list.Names())
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newTestCommand(runInit)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, config.FileName)

	cfg, err := config.Load(config.FileName)
	require.NoError(t, err)
	defaults := config.Defaults()
	assert.Equal(t, defaults.Wrap.FunctionPrefix, cfg.Wrap.FunctionPrefix)
	assert.Equal(t, defaults.Output, cfg.Output)
	assert.Equal(t, config.FileName, filepath.Base(cfg.Path))

	again := newTestCommand(runInit)
	again.SetArgs([]string{})
	require.Error(t, again.Execute())

	forced := newTestCommand(runInit)
	forced.SetArgs([]string{"--force"})
	require.NoError(t, forced.Execute())
	assert.FileExists(t, config.FileName+".back1")
}
