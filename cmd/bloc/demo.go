package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/bloc/internal/config"
	"github.com/vango-dev/bloc/internal/demo"
	"github.com/vango-dev/bloc/internal/errors"
	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
	"github.com/vango-dev/bloc/pkg/telemetry"
)

func demoCmd(configPath *string) *cobra.Command {
	var (
		items   []string
		delay   time.Duration
		metrics bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted session against the sample app",
		Long: `Mount the sample board and apply a fixed script of edits:
add an item, reverse the list, remove an item and click the ticker.
The rendered HTML and the element mutations of every step are printed.

Examples:
  bloc demo
  bloc demo --items=a,b,c --delay=50ms
  bloc demo --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := runDemo(cmd.OutOrStdout(), cfg, items, delay, metrics, timeout); err != nil {
				return errors.FromError(err, "B400")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&items, "items", []string{"alpha", "beta", "gamma"}, "Initial items")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Simulated load time of each new item")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print collected metrics at the end")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Maximum time per step")

	return cmd
}

type demoStep struct {
	name string
	run  func() *loop.Future[struct{}]
}

func runDemo(w io.Writer, cfg *config.Config, items []string, delay time.Duration, metrics bool, timeout time.Duration) error {
	logger := cfg.Logger(os.Stderr)
	l := loop.New()
	defer l.Close()

	doc := dom.NewDocument()
	rec := &dom.Recorder{}
	doc.Observe(rec)

	reg := prometheus.NewRegistry()
	collector := telemetry.New(
		telemetry.WithRegistry(reg),
		telemetry.WithNamespace(cfg.Metrics.Namespace),
		telemetry.WithSubsystem(cfg.Metrics.Subsystem),
		telemetry.WithTracing(cfg.Tracing.Enabled),
		telemetry.WithTracerName(cfg.Tracing.TracerName),
	)

	title := cfg.Name
	if title == "" {
		title = "bloc"
	}
	board := demo.New(title, items...)
	app := component.NewApp(board.Type(),
		component.WithLoop(l),
		component.WithLogger(logger),
		component.WithEnv(demo.Env{ItemDelay: delay}),
		component.WithDev(cfg.Dev),
		component.WithObserver(collector),
	)

	idle := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return l.RunUntilIdle(ctx)
	}
	report := func(name string) {
		fmt.Fprintf(w, "%s %s %s\n", green("✓"), name, faint(fmt.Sprintf("(%d mutations)", len(rec.Mutations))))
		fmt.Fprintf(w, "  %s\n", doc.Body().InnerHTML())
		rec.Reset()
	}

	mounted := app.Mount(doc.Body())
	if err := idle(); err != nil {
		return err
	}
	if _, err, ok := mounted.Result(); !ok || err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	report("mount")

	steps := []demoStep{
		{"add delta", func() *loop.Future[struct{}] { return board.Add("delta") }},
		{"reverse", board.Reverse},
		{"click ticker", func() *loop.Future[struct{}] {
			if button := doc.Body().Find("button"); button != nil {
				button.Dispatch(dom.Event{Type: "click"})
			}
			return nil
		}},
	}
	if len(items) > 0 {
		first := items[0]
		steps = append(steps, demoStep{"remove " + first, func() *loop.Future[struct{}] { return board.Remove(first) }})
	}
	for _, step := range steps {
		fut := step.run()
		if err := idle(); err != nil {
			return err
		}
		if fut != nil {
			if _, err, _ := fut.Result(); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
		report(step.name)
	}

	app.Destroy()
	if err := idle(); err != nil {
		return err
	}
	report("destroy")

	if metrics {
		return printMetrics(w, reg)
	}
	return nil
}

// printMetrics prints the total of every counter and the sample count of
// every histogram in reg.
func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	fmt.Fprintln(w)
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		fmt.Fprintf(w, "  %-40s %v\n", mf.GetName(), total)
	}
	return nil
}
