package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"safetycal/internal/aggregate"
	"safetycal/internal/backend"
	"safetycal/internal/capture"
	"safetycal/internal/config"
	"safetycal/internal/dashboard"
	"safetycal/internal/dispatch"
	"safetycal/internal/i18n"
	"safetycal/internal/ics"
	appLog "safetycal/internal/log"
	"safetycal/internal/model"
	"safetycal/internal/source"
	"safetycal/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
	importPath string
}

// app holds the wired components shared by every run mode.
type app struct {
	cfg        *config.Config
	bundle     *i18n.Bundle
	client     *backend.Client
	tracker    *aggregate.Tracker
	prefills   *dispatch.PrefillStore
	dispatcher *dispatch.Dispatcher
	dashboard  *dashboard.Summarizer
	server     *web.Server
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("safetycal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"locale", conf.Locale,
		"backend", conf.Backend.BaseURL,
		"refresh", conf.RefreshCron,
		"expand_recurring", conf.Calendar.ExpandRecurring,
		"once", flags.once,
		"snapshot", flags.snapshot,
		"import", flags.importPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(conf)
	if err != nil {
		appLog.Error("failed to initialize", err)
		os.Exit(1)
	}

	switch {
	case flags.importPath != "":
		err = a.importICS(ctx, flags.importPath)
	case flags.once:
		err = a.runOnce(ctx)
	case flags.snapshot:
		err = a.runSnapshot(ctx)
	default:
		err = a.serve(ctx)
	}
	if err != nil {
		appLog.Error("safetycal failed", err)
		os.Exit(1)
	}
	appLog.Info("safetycal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/safetycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Aggregate once, print the events as JSON and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Serve, capture the month page to capture.output_path and exit")
	flag.StringVar(&cfg.importPath, "import", "", "Import VEVENTs from an .ics file as meetings and exit")

	flag.Parse()

	return cfg
}

func newApp(cfg *config.Config) (*app, error) {
	loc := cfg.Location()
	bundle := i18n.NewBundle(cfg.Locale)

	client, err := backend.New(backend.Options{
		BaseURL:  cfg.Backend.BaseURL,
		Token:    cfg.Backend.Token,
		Timeout:  cfg.BackendTimeout(),
		PageSize: cfg.Backend.PageSize,
		CacheDir: cfg.Backend.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	env := source.Env{Tr: bundle.For(cfg.Locale), Loc: loc}
	adapters := source.All(client, client, client, client, client, env)
	indicator := &aggregate.Indicator{}
	tracker := aggregate.NewTracker(aggregate.New(adapters, indicator), nil)

	prefills := dispatch.NewPrefillStore(cfg.PrefillTTL(), nil)
	dispatcher, err := dispatch.New(dispatch.Options{
		Navigator: prefills,
		Store:     client,
		Reloader:  tracker,
		Indicator: indicator,
		Location:  loc,
	})
	if err != nil {
		return nil, err
	}

	summarizer := dashboard.New(dashboard.Options{
		Tasks:               client,
		Trainings:           client,
		AdditionalTrainings: client,
		Events:              client,
		Location:            loc,
		TopN:                cfg.Dashboard.TopN,
	})

	server, err := web.NewServer(web.Options{
		Config:     cfg,
		Tracker:    tracker,
		Bundle:     bundle,
		Dispatcher: dispatcher,
		Prefills:   prefills,
		Dashboard:  summarizer,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		bundle:     bundle,
		client:     client,
		tracker:    tracker,
		prefills:   prefills,
		dispatcher: dispatcher,
		dashboard:  summarizer,
		server:     server,
	}, nil
}

func (a *app) runOnce(ctx context.Context) error {
	res, ok := a.tracker.Refresh(ctx)
	if !ok {
		return errors.New("aggregation was superseded or canceled")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (a *app) serve(ctx context.Context) error {
	if _, ok := a.tracker.Refresh(ctx); !ok && ctx.Err() != nil {
		return nil
	}

	c, err := a.schedule(ctx)
	if err != nil {
		return err
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	return a.server.Serve(ctx)
}

// schedule registers the periodic refresh and, when configured, the periodic
// capture.
func (a *app) schedule(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(a.cfg.Location()))

	if _, err := c.AddFunc(a.cfg.RefreshCron, func() {
		res, ok := a.tracker.Refresh(ctx)
		if ok {
			appLog.Debug("scheduled refresh applied", "generation", res.Generation, "events", len(res.Events))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", a.cfg.RefreshCron, err)
	}

	if a.cfg.Capture.Cron != "" {
		if _, err := c.AddFunc(a.cfg.Capture.Cron, func() {
			if err := a.capture(ctx); err != nil {
				appLog.Error("scheduled capture failed", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("invalid capture schedule %q: %w", a.cfg.Capture.Cron, err)
		}
	}
	return c, nil
}

func (a *app) runSnapshot(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Serve(ctx) }()

	if err := waitHealthy(ctx, baseURL(a.cfg.Listen), 10*time.Second); err != nil {
		cancel()
		<-errCh
		return err
	}

	capErr := a.capture(ctx)
	cancel()
	if err := <-errCh; err != nil {
		return err
	}
	return capErr
}

func (a *app) capture(ctx context.Context) error {
	month := a.tracker.Month()
	opts := capture.Options{
		BaseURL:    baseURL(a.cfg.Listen),
		Month:      fmt.Sprintf("%04d-%02d", month.Year, int(month.Month)),
		Locale:     a.cfg.Locale,
		OutputPath: a.cfg.Capture.OutputPath,
		Width:      a.cfg.Capture.Width,
		Height:     a.cfg.Capture.Height,
		Timeout:    time.Duration(a.cfg.Capture.TimeoutSeconds) * time.Second,
	}
	if a.cfg.BasicAuth != nil {
		opts.Username = a.cfg.BasicAuth.Username
		opts.Password = a.cfg.BasicAuth.Password
	}
	return capture.CaptureCalendarPNG(ctx, opts)
}

// importICS stores every VEVENT occurrence from path as a MEETING through the
// dispatcher. Recurring events are expanded from the start of the previous
// month to a year ahead.
func (a *app) importICS(ctx context.Context, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	parsed, err := ics.Parse(body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	loc := a.cfg.Location()
	from, to := importWindow(time.Now().In(loc))
	events, err := ics.ToEvents(parsed, ics.ImportConfig{
		Location: loc,
		From:     from,
		To:       to,
		Type:     model.TypeMeeting,
	})
	if err != nil {
		return err
	}

	created, err := a.dispatcher.CreateAll(ctx, events)
	appLog.Info("import finished", "path", path, "parsed", len(parsed), "events", len(events), "created", len(created))
	if err != nil {
		return fmt.Errorf("import: %d of %d events failed: %w", len(events)-len(created), len(events), err)
	}
	return nil
}

func importWindow(now time.Time) (from, to model.Date) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return model.DateOf(first.AddDate(0, -1, 0)), model.DateOf(first.AddDate(1, 0, -1))
}

// baseURL turns a listen address into a loopback URL the capture browser can
// reach. Wildcard hosts map to 127.0.0.1.
func baseURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func waitHealthy(ctx context.Context, base string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
		if err != nil {
			return err
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server at %s did not become healthy: %w", base, ctx.Err())
		case <-ticker.C:
		}
	}
}
