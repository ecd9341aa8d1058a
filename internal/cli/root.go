// Package cli implements the pedrito command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/pedrito/internal/config"
	"github.com/tOgg1/pedrito/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	version string
	out     io.Writer
	errOut  io.Writer

	configFile string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

// Execute runs the root command with args. With no args and a terminal
// attached it opens the dashboard. SIGINT and SIGTERM cancel the command.
func Execute(version string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 && hasTTY() {
		args = []string{"ui"}
	}
	cmd := newRootCmd(version, os.Stdout, os.Stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(version string, out, errOut io.Writer) *cobra.Command {
	a := &app{version: version, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "pedrito",
		Short: "Personal assistant dashboard for WhatsApp open loops",
		Long: "pedrito links to a WhatsApp bridge, tracks the open loops an intelligence\n" +
			"service finds in your conversations, and shows them as a daily briefing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/pedrito/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	cmd.AddCommand(
		newUICmd(a),
		newServeCmd(a),
		newStatusCmd(a),
		newLoopsCmd(a),
		newDigestCmd(a),
		newDismissedCmd(a),
		newOnboardCmd(a),
		newConfigCmd(a),
	)

	return cmd
}

func (a *app) loadConfig() error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	if a.logLevel != "" {
		loader.Set("logging.level", a.logLevel)
	}
	if a.logFormat != "" {
		loader.Set("logging.format", a.logFormat)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(a.errOut); err != nil {
		return err
	}
	logger := logging.Component("cli")
	logger.Debug().Str("config", loader.ConfigFileUsed()).Msg("config loaded")
	return nil
}

// initLogging sends logs to the configured file, or to fallback.
func (a *app) initLogging(fallback io.Writer) error {
	lc := logging.Config{
		Level:        a.cfg.Logging.Level,
		Format:       strings.ToLower(a.cfg.Logging.Format),
		Output:       fallback,
		EnableCaller: a.cfg.Logging.EnableCaller,
	}
	if path := a.cfg.Logging.File; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		lc.Output = f
	}
	logging.Init(lc)
	return nil
}
