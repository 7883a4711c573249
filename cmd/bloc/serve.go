package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/bloc/internal/config"
	"github.com/vango-dev/bloc/internal/demo"
	"github.com/vango-dev/bloc/internal/errors"
	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/inspect"
	"github.com/vango-dev/bloc/pkg/loop"
	"github.com/vango-dev/bloc/pkg/telemetry"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr  string
		tick  time.Duration
		delay time.Duration
		items []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sample app behind the inspector",
		Long: `Mount the sample board and serve the inspector over HTTP.

The board's ticker is bumped every --tick, so connected WebSocket
clients see a steady stream of mutations.

Examples:
  bloc serve
  bloc serve --addr=:7070 --tick=500ms
  curl localhost:7070/inspect/snapshot?format=msgpack`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspector.Addr = addr
			}
			if err := runServe(cfg, items, tick, delay); err != nil {
				return errors.FromError(err, "B401")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Ticker interval, 0 to disable")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Simulated load time of each new item")
	cmd.Flags().StringSliceVar(&items, "items", []string{"alpha", "beta", "gamma"}, "Initial items")

	return cmd
}

func runServe(cfg *config.Config, items []string, tick, delay time.Duration) error {
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := loop.New()
	defer l.Close()
	loopErr := make(chan error, 1)
	go func() { loopErr <- l.Run(ctx) }()

	var (
		opts     []component.Option
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled || cfg.Tracing.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		gatherer = reg
		opts = append(opts, component.WithObserver(telemetry.New(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithSubsystem(cfg.Metrics.Subsystem),
			telemetry.WithTracing(cfg.Tracing.Enabled),
			telemetry.WithTracerName(cfg.Tracing.TracerName),
		)))
	}

	title := cfg.Name
	if title == "" {
		title = "bloc"
	}
	board := demo.New(title, items...)
	opts = append(opts,
		component.WithLoop(l),
		component.WithLogger(logger),
		component.WithEnv(demo.Env{ItemDelay: delay}),
		component.WithDev(cfg.Dev),
	)
	doc := dom.NewDocument()
	app, mounted, err := mountOnLoop(ctx, l, board.Type(), doc.Body(), opts)
	if err != nil {
		return err
	}
	if _, err := mounted.Wait(ctx); err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	var inspectOpts []inspect.Option
	inspectOpts = append(inspectOpts, inspect.WithLogger(logger))
	if cfg.Metrics.Enabled {
		inspectOpts = append(inspectOpts, inspect.WithGatherer(gatherer))
	}
	insp := inspect.New(app, doc.Body(), inspectOpts...)

	base := strings.TrimSuffix(cfg.Inspector.Path, "/")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if base == "" {
		r.Mount("/", insp.Handler())
	} else {
		r.Mount(base, insp.Handler())
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, base+"/html", http.StatusFound)
		})
	}

	srv := &http.Server{
		Addr:              cfg.Inspector.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	printBanner()
	success("Serving %s", title)
	info("Inspector: http://%s%s/snapshot", cfg.Inspector.Addr, base)
	info("Stream:    ws://%s%s/ws", cfg.Inspector.Addr, base)
	if cfg.Metrics.Enabled {
		info("Metrics:   http://%s%s/metrics", cfg.Inspector.Addr, base)
	}
	fmt.Println()

	if tick > 0 {
		go runTicker(ctx, l, board, tick)
	}

	var (
		runErr     error
		loopExited bool
	)
	select {
	case <-ctx.Done():
		fmt.Println("\n  Shutting down...")
	case err := <-srvErr:
		if !stderrors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case err := <-loopErr:
		loopExited = true
		if err != nil && !stderrors.Is(err, context.Canceled) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		warn("shutdown: %v", err)
	}

	// Once the loop goroutine has returned, the app can be torn down here.
	stop()
	if !loopExited {
		<-loopErr
	}
	app.Destroy()
	l.Drain()
	return runErr
}

// mountOnLoop creates the app and starts mounting it into target on the
// loop goroutine.
func mountOnLoop(ctx context.Context, l *loop.Loop, typ *component.Type, target *dom.Node, opts []component.Option) (*component.App, *loop.Future[*component.Node], error) {
	var (
		app *component.App
		fut *loop.Future[*component.Node]
	)
	done := make(chan struct{})
	if err := l.Submit(func() {
		app = component.NewApp(typ, opts...)
		fut = app.Mount(target)
		close(done)
	}); err != nil {
		return nil, nil, err
	}
	select {
	case <-done:
		return app, fut, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func runTicker(ctx context.Context, l *loop.Loop, board *demo.Board, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := l.Submit(func() { board.Tick() }); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
