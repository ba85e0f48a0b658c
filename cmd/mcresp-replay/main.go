package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pior/mcresp"
	"github.com/pior/mcresp/promexporter"
	"github.com/pior/mcresp/text"
	"golang.org/x/sync/errgroup"
)

const component = "mcresp-replay"

type options struct {
	concurrency int
	readSize    int
	maxSize     int
	logLevel    string
	components  string
	metricsAddr string
	breaker     bool
	quiet       bool
	envFile     string
	topErrors   int
}

func main() {
	var opts options
	flag.IntVar(&opts.concurrency, "concurrency", 4, "Number of sources decoded at once")
	flag.IntVar(&opts.readSize, "read-size", 0, "Read buffer size (default from "+mcresp.EnvReadSize+" or 4096)")
	flag.IntVar(&opts.maxSize, "max-size", 0, "Maximum response size (default from "+mcresp.EnvMaxResponseSize+" or 1MB)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error (default from "+mcresp.EnvLogLevel+" or info)")
	flag.StringVar(&opts.components, "components", "", "Comma-separated components to log (default from "+mcresp.EnvLogComponents+" or "+component+")")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while replaying (e.g. :9090)")
	flag.BoolVar(&opts.breaker, "breaker", false, "Stop reading a source once it keeps sending malformed responses")
	flag.BoolVar(&opts.quiet, "quiet", false, "Only print the summary")
	flag.StringVar(&opts.envFile, "env", ".env", "Dotenv file to load before reading the environment")
	flag.IntVar(&opts.topErrors, "top-errors", 10, "Number of distinct error replies shown in the summary")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file>... (use - for stdin)\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Classifies recorded memcached text protocol responses.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	sources := flag.Args()
	if len(sources) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newReplayer(cfg, opts)
	defer r.close()

	if opts.metricsAddr != "" {
		r.serveMetrics(ctx, opts.metricsAddr)
	}

	start := time.Now()
	failed := r.run(ctx, sources)
	r.printSummary(r.out, time.Since(start))

	if failed > 0 {
		os.Exit(1)
	}
}

// buildConfig loads the environment first; flags that were set explicitly
// take precedence.
func buildConfig(opts options) (mcresp.Config, error) {
	cfg, err := mcresp.LoadConfigFromEnv(opts.envFile)
	if err != nil {
		return mcresp.Config{}, err
	}

	if opts.readSize > 0 {
		cfg.ReadSize = opts.readSize
	}
	if opts.maxSize > 0 {
		cfg.MaxResponseSize = opts.maxSize
	}

	levelName := opts.logLevel
	if levelName == "" {
		levelName = os.Getenv(mcresp.EnvLogLevel)
	}
	if levelName == "" {
		levelName = "info"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return mcresp.Config{}, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	componentList := opts.components
	if componentList == "" {
		componentList = os.Getenv(mcresp.EnvLogComponents)
	}
	components := mcresp.SplitComponents(componentList)
	if len(components) == 0 {
		components = []string{component}
	}
	if components[0] != component {
		components = append([]string{component}, components...)
	}

	cfg.Logger = mcresp.NewDiagnosticLogger(os.Stderr, level, components...)
	cfg.Stats = mcresp.NewStats()
	return cfg, nil
}

type replayer struct {
	cfg      mcresp.Config
	opts     options
	logger   *slog.Logger
	pool     *mcresp.DecoderPool
	exporter *promexporter.Exporter

	outMu sync.Mutex
	out   io.Writer

	mu       sync.Mutex
	failures map[string]error
}

func newReplayer(cfg mcresp.Config, opts options) *replayer {
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}

	pool, err := mcresp.NewDecoderPool(cfg, int32(opts.concurrency))
	if err != nil {
		log.Fatalf("Failed to create decoder pool: %v", err)
	}

	exporter := promexporter.NewExporter("")
	if err := exporter.RegisterStats(cfg.Stats); err != nil {
		log.Fatalf("Failed to register stats: %v", err)
	}
	if err := exporter.RegisterPool(pool); err != nil {
		log.Fatalf("Failed to register pool metrics: %v", err)
	}

	return &replayer{
		cfg:      cfg,
		opts:     opts,
		logger:   cfg.Logger,
		pool:     pool,
		exporter: exporter,
		out:      os.Stdout,
		failures: make(map[string]error),
	}
}

func (r *replayer) close() {
	r.pool.Close()
}

func (r *replayer) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.exporter.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		r.logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
}

// run replays every source and returns the number of sources that failed.
func (r *replayer) run(ctx context.Context, sources []string) int {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)

	for _, source := range sources {
		g.Go(func() error {
			if err := r.replay(ctx, source); err != nil {
				r.logger.Warn("source failed", slog.String("source", source), slog.String("error", err.Error()))
				r.mu.Lock()
				r.failures[source] = err
				r.mu.Unlock()
			}
			// A failing source does not stop the others.
			return nil
		})
	}
	_ = g.Wait()

	return len(r.failures)
}

func (r *replayer) replay(ctx context.Context, source string) error {
	in, err := openSource(source)
	if err != nil {
		return err
	}
	defer in.Close()

	var breaker *mcresp.ViolationBreaker
	if r.opts.breaker {
		breaker = mcresp.NewViolationBreaker(mcresp.NewViolationBreakerSettings(source, 1, 0, time.Minute), r.logger)
		if err := r.exporter.RegisterBreaker(breaker); err != nil {
			r.logger.Warn("breaker metrics not registered", slog.String("source", source), slog.String("error", err.Error()))
		}
	}

	r.logger.Debug("replaying source", slog.String("source", source))

	n := 0
	err = r.pool.Decode(ctx, in, breaker, func(resp mcresp.Response) error {
		n++
		if !r.opts.quiet {
			r.printResponse(source, n, resp)
		}
		return nil
	})

	r.logger.Debug("source done", slog.String("source", source), slog.Int("responses", n))
	return err
}

func (r *replayer) printResponse(source string, n int, resp mcresp.Response) {
	head, _, _ := strings.Cut(string(resp.Raw), text.CRLF)

	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, "%s\t%d\t%-10s\t%d\t%s\n", source, n, resp.Outcome.Kind, len(resp.Raw), head)
}

func (r *replayer) printSummary(w io.Writer, elapsed time.Duration) {
	snap := r.cfg.Stats.Snapshot()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "=======")
	fmt.Fprintf(w, "Responses: %d (%d bytes) in %v\n", snap.Total(), snap.Bytes, elapsed.Round(time.Millisecond))
	for _, kind := range text.Kinds() {
		if kind == text.KindIncomplete {
			continue
		}
		fmt.Fprintf(w, "  %-10s %d\n", kind, snap.Count(kind))
	}

	messages, dropped := r.cfg.Stats.ErrorMessages()
	if len(messages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Error replies:")
		for i, m := range messages {
			if i >= r.opts.topErrors {
				fmt.Fprintf(w, "  ... %d more\n", len(messages)-i)
				break
			}
			fmt.Fprintf(w, "  %6d  %s\n", m.Count, m.Reply)
		}
		if dropped > 0 {
			fmt.Fprintf(w, "  %6d  (untracked)\n", dropped)
		}
	}

	if len(r.failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed sources:")
		for _, source := range slices.Sorted(maps.Keys(r.failures)) {
			fmt.Fprintf(w, "  %s: %v\n", source, r.failures[source])
		}
	}
}

func openSource(source string) (io.ReadCloser, error) {
	if source == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(source)
}
