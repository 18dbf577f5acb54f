// Command vtree renders, diffs and serves declarative view trees.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries the global flags and the state they produce.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		errors.PrintError(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vtree",
		Short: "Render and inspect declarative view trees",
		Long: `vtree reconciles declarative node trees against a headless view platform.

Trees are described in YAML. vtree renders them, shows what a change
would construct, reuse or dismantle, and serves a live inspector.

Settings are read from vtree.json in the project root.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to vtree.json or its directory")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from vtree.json)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		initCmd(a),
		renderCmd(a),
		diffCmd(a),
		queryCmd(a),
		serveCmd(a),
		snapshotCmd(a),
		versionCmd(a),
	)
	return root
}

// setup loads the config and configures logging and colors.
func (a *app) setup() error {
	if a.noColor || os.Getenv("NO_COLOR") != "" || !isTerminal(a.stderr) {
		errors.DisableColors()
	} else {
		errors.EnableColors()
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return errors.New("V050").WithDetail(fmt.Sprintf("Unknown log level %q.", a.logLevel)).Wrap(err)
		}
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.LoadFromWorkingDir()
	}
	info, err := os.Stat(a.configPath)
	if err == nil && info.IsDir() {
		return config.LoadOptional(a.configPath)
	}
	return config.LoadFile(a.configPath)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
