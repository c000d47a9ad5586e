// Package cmd implements the bindsoak CLI commands.
//
// Settings are layered: bind.yaml in --dir (or the file named by --config),
// then BIND_* environment variables, then flags.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bindErrors "github.com/go-drift/bind/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "bindsoak",
	Short: "Soak-test reactive property bindings",
	Long: `bindsoak binds a string property to an int model member, hammers both
ends from concurrent writers and checks that they agree afterwards.

Use "bindsoak <command> --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
}

// settings holds flag, environment and file values for the current run.
var settings = newSettings()

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("BIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	return v
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-format", "text", "log output format (text or json)")
	flags.String("log-level", "info", "minimum log level (debug, info, warn, error)")
	_ = settings.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = settings.BindPFlag("log.level", flags.Lookup("log-level"))
}

// Execute runs the CLI with os.Args.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// setupLogging installs the default slog logger and routes binding errors
// through it.
func setupLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.GetString("log.level"))); err != nil {
		return fmt.Errorf("invalid log level %q", settings.GetString("log.level"))
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format := strings.ToLower(settings.GetString("log.format")); format {
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format %q (use text or json)", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	bindErrors.SetHandler(&bindErrors.LogHandler{Logger: logger, Verbose: level <= slog.LevelDebug})
	return nil
}
