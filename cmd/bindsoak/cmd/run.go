package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/go-drift/bind/cmd/bindsoak/internal/soak"
	"github.com/go-drift/bind/pkg/config"
)

// errNotConverged is returned when the endpoints disagree after a run.
var errNotConverged = errors.New("endpoints did not converge")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a soak test",
	Long: `Run binds a string property to an int member with a two-way binding,
starts the configured source and property writers, waits for them and for
the dispatcher to drain, then compares both ends.

Every setting can also come from bind.yaml or a BIND_* environment variable,
for example BIND_SOAK_ITERATIONS=5000 or BIND_DISPATCH_KIND=inline.`,
	Args: cobra.NoArgs,
	RunE: runSoak,
}

// settingFlags maps configuration keys to their flags.
var settingFlags = map[string]string{
	"version":               "schema-version",
	"binding.mode":          "mode",
	"binding.locale":        "locale",
	"dispatch.kind":         "dispatch",
	"observer.kind":         "observer",
	"observer.namespace":    "namespace",
	"soak.source_writers":   "source-writers",
	"soak.property_writers": "property-writers",
	"soak.iterations":       "iterations",
}

func init() {
	flags := runCmd.Flags()
	flags.String("dir", ".", "directory containing bind.yaml")
	flags.String("config", "", "explicit configuration file (overrides --dir)")
	flags.Bool("metrics", false, "print Prometheus metrics after the run (with --observer prometheus)")
	flags.String("schema-version", "", "bind.yaml schema version")
	flags.String("mode", "", "binding mode (two_way, one_way, one_way_to_source, one_time)")
	flags.String("locale", "", "BCP 47 locale used to format numbers")
	flags.String("dispatch", "", "where updates run (serial, inline, none)")
	flags.String("observer", "", "binding event observer (noop, slog, prometheus or a registered name)")
	flags.String("namespace", "", "Prometheus metric namespace")
	flags.Int("source-writers", 0, "goroutines writing the model member")
	flags.Int("property-writers", 0, "goroutines writing the bound property")
	flags.Int("iterations", 0, "writes per goroutine")

	for key, name := range settingFlags {
		_ = settings.BindPFlag(key, flags.Lookup(name))
	}
	_ = settings.BindPFlag("dir", flags.Lookup("dir"))
	_ = settings.BindPFlag("config", flags.Lookup("config"))
	_ = settings.BindPFlag("metrics", flags.Lookup("metrics"))

	rootCmd.AddCommand(runCmd)
}

func runSoak(cmd *cobra.Command, args []string) error {
	resolved, err := loadSettings()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rt, err := resolved.Runtime(reg, slog.Default())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := soak.Run(ctx, rt, soak.Options{
		SourceWriters:   resolved.Soak.SourceWriters,
		PropertyWriters: resolved.Soak.PropertyWriters,
		Iterations:      resolved.Soak.Iterations,
		Mode:            resolved.Mode,
		Locale:          resolved.Locale,
	})
	if err != nil {
		return fmt.Errorf("soak run: %w", err)
	}

	out := cmd.OutOrStdout()
	printResult(out, resolved, res)
	if settings.GetBool("metrics") && resolved.Observer == config.ObserverPrometheus {
		if err := printMetrics(out, reg); err != nil {
			return err
		}
	}
	if !res.Converged {
		return fmt.Errorf("%w: source=%d property=%q", errNotConverged, res.Source, res.Property)
	}
	return nil
}

// loadSettings reads the configuration file and layers environment and
// flag values over it.
func loadSettings() (*config.Resolved, error) {
	dir := settings.GetString("dir")
	var (
		file *config.Config
		err  error
	)
	if path := settings.GetString("config"); path != "" {
		file, err = config.Load(path)
	} else {
		file, err = config.LoadOptional(dir)
	}
	if err != nil {
		return nil, err
	}
	if file.Dispatch.Kind == "" {
		file.Dispatch.Kind = config.DispatchSerial
	}

	settings.SetDefault("version", file.Version)
	settings.SetDefault("binding.mode", file.Binding.Mode)
	settings.SetDefault("binding.locale", file.Binding.Locale)
	settings.SetDefault("dispatch.kind", file.Dispatch.Kind)
	settings.SetDefault("observer.kind", file.Observer.Kind)
	settings.SetDefault("observer.namespace", file.Observer.Namespace)
	settings.SetDefault("soak.source_writers", file.Soak.SourceWriters)
	settings.SetDefault("soak.property_writers", file.Soak.PropertyWriters)
	settings.SetDefault("soak.iterations", file.Soak.Iterations)

	var cfg config.Config
	if err := settings.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	resolved.Root = dir
	return resolved, nil
}

func printResult(w io.Writer, r *config.Resolved, res soak.Result) {
	status := "converged"
	if !res.Converged {
		status = "DIVERGED"
	}
	fmt.Fprintf(w, "mode:        %s\n", r.Mode)
	fmt.Fprintf(w, "dispatch:    %s\n", r.Dispatch)
	fmt.Fprintf(w, "locale:      %s\n", r.Locale)
	fmt.Fprintf(w, "writers:     %d source, %d property, %d iterations\n", r.Soak.SourceWriters, r.Soak.PropertyWriters, r.Soak.Iterations)
	fmt.Fprintf(w, "writes:      %d\n", res.Writes)
	fmt.Fprintf(w, "updates:     %d (skipped %d, failed %d, panicked %d)\n", res.Updates, res.Skips, res.Failures, res.Panics)
	fmt.Fprintf(w, "final:       source=%d property=%q\n", res.Source, res.Property)
	fmt.Fprintf(w, "elapsed:     %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "result:      %s\n", status)
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
