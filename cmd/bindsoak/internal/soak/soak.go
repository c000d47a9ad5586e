// Package soak drives concurrent writers against both ends of one binding
// and checks that the endpoints agree once the writers stop.
package soak

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/go-drift/bind/pkg/binding"
	"github.com/go-drift/bind/pkg/config"
	"github.com/go-drift/bind/pkg/convert"
	"github.com/go-drift/bind/pkg/observability"
	"github.com/go-drift/bind/pkg/observable"
)

// Counter is the model under test: one int member announced as "Count".
type Counter struct {
	observable.Notifier
	count observable.Field[int]
}

// Count returns the current value.
func (c *Counter) Count() int { return c.count.Get() }

// SetCount stores v and announces the change.
func (c *Counter) SetCount(v int) error {
	_, err := c.count.Set(&c.Notifier, v, "Count")
	return err
}

// CountMember is the accessor bound by Run.
var CountMember = binding.Member[*Counter, int]{
	Name: "Count",
	Get:  (*Counter).Count,
	Set:  (*Counter).SetCount,
}

// Options sizes a run.
type Options struct {
	SourceWriters   int
	PropertyWriters int
	Iterations      int
	Mode            binding.Mode
	Locale          language.Tag
}

// Result summarizes a run.
type Result struct {
	Source    int
	Property  string
	Converged bool
	Writes    int64
	Updates   int64
	Skips     int64
	Failures  int64
	Panics    int64
	Elapsed   time.Duration
}

// Run binds a string property to a Counter through convert.Int, using the
// dispatcher and observer of rt, and starts the configured writers. Source
// writers store distinct positive numbers; property writers store distinct
// negative numbers as text. Once the writers finish and rt is flushed the
// endpoints are compared.
func Run(ctx context.Context, rt *config.Runtime, opts Options) (Result, error) {
	tally := &tally{}
	var failures atomic.Int64

	managerOpts := append(slices.Clone(rt.Options),
		binding.WithLocale(opts.Locale),
		binding.WithObserver(observability.NewMultiObserver(tally, rt.Observer)),
		binding.WithErrorHandler(func(err error) {
			failures.Add(1)
			slog.Debug("soak update failed", "error", err)
		}),
	)
	m := binding.NewManager(managerOpts...)
	defer m.Dispose()

	model := &Counter{}
	text := observable.NewValue("")
	b, err := binding.Bind(m, text, model, CountMember, binding.Options[string, int]{
		Mode:      opts.Mode,
		Converter: convert.Int(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("bind: %w", err)
	}
	slog.Info("soak started",
		"binding", b.ID(),
		"mode", opts.Mode,
		"source_writers", opts.SourceWriters,
		"property_writers", opts.PropertyWriters,
		"iterations", opts.Iterations,
	)

	start := time.Now()
	var writes atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.SourceWriters {
		g.Go(func() error {
			for i := range opts.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := model.SetCount(w*opts.Iterations + i + 1); err != nil {
					return fmt.Errorf("source writer %d: %w", w, err)
				}
				writes.Add(1)
			}
			return nil
		})
	}
	for w := range opts.PropertyWriters {
		g.Go(func() error {
			for i := range opts.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := text.Set(strconv.Itoa(-(w*opts.Iterations + i + 1))); err != nil {
					return fmt.Errorf("property writer %d: %w", w, err)
				}
				writes.Add(1)
			}
			return nil
		})
	}
	werr := g.Wait()
	rt.Flush()

	res := Result{
		Source:   model.Count(),
		Property: text.Value(),
		Writes:   writes.Load(),
		Updates:  tally.updates.Load(),
		Skips:    tally.skips.Load(),
		Failures: failures.Load(),
		Panics:   rt.Panics(),
		Elapsed:  time.Since(start),
	}
	parsed, perr := convert.Int().Convert(res.Property, convert.Params{Locale: opts.Locale})
	res.Converged = perr == nil && parsed == res.Source
	return res, werr
}

// tally counts update and skip events.
type tally struct {
	updates atomic.Int64
	skips   atomic.Int64
}

func (t *tally) OnEvent(_ context.Context, e observability.Event) {
	switch e.Type {
	case observability.EventUpdate:
		t.updates.Add(1)
	case observability.EventSkip:
		t.skips.Add(1)
	}
}
