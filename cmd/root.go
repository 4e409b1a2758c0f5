package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kernel/geoshot/internal/config"
)

var version = "dev"

// exitCode is set by commands that already showed their failure to the user.
var exitCode int

// reportedError is a failure whose message is already on screen.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// exitOnReported swallows an already-drawn failure so fang does not print it
// again, and records the non-zero exit status instead.
func exitOnReported(err error) error {
	var rep *reportedError
	if errors.As(err, &rep) {
		exitCode = 1
		return nil
	}
	return err
}

type ctxKey string

const configKey ctxKey = "config"

var rootCmd = &cobra.Command{
	Use:   "geoshot",
	Short: "Guess where the screenshot of your current browser tab was taken",
	Long: `geoshot captures the visible tab of a Chromium browser over the DevTools
protocol, asks Google Gemini where the picture was taken, and prints the guess.

Run without a subcommand to locate the active tab.`,
	Version:           version,
	SilenceUsage:      true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: loadConfig,
	RunE:              runLocate,
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Print state transitions and request details")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default is $XDG_CONFIG_HOME/geoshot/config.yaml)")
	addLocateFlags(rootCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
	if exitCode != 0 {
		stop()
		os.Exit(exitCode)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
		pterm.EnableDebugMessages()
	}
	cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
	return nil
}

// getConfig returns the configuration loaded for this invocation.
func getConfig(cmd *cobra.Command) config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(config.Config); ok {
		return cfg
	}
	cfg, err := config.Load("")
	if err != nil {
		pterm.Warning.Printf("Falling back to defaults: %v\n", err)
	}
	return cfg
}

func newLogger() *slog.Logger {
	return slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))
}
