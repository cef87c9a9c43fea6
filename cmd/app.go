package cmd

import (
	"context"
	"fmt"
	"time"

	"apartment-watcher/config"
	"apartment-watcher/metrics"
	"apartment-watcher/notifier"
	"apartment-watcher/scheduler"
	"apartment-watcher/scraper/olx"
	"apartment-watcher/services"
	"apartment-watcher/storage"
	"apartment-watcher/utils"
)

// app is the wired check pipeline shared by the run and check commands.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	loc     *time.Location
	cycle   *services.Cycle
	metrics *metrics.Recorder
	mirror  storage.ListingMirror
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, loc := newLogger(cfg)
	attachJournal(cfg, logger)

	if _, err := scheduler.ParseSchedule(cfg.CronSpec()); err != nil {
		return nil, err
	}

	extractor, err := olx.NewExtractor(cfg.TargetURL, logger)
	if err != nil {
		return nil, err
	}

	telegram, err := notifier.NewTelegramClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, loc: loc, metrics: metrics.NewRecorder()}

	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgresWriter(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres mirror: %w", err)
		}
		a.mirror = pg
	}

	store := storage.NewJSONStateStore(cfg.ApartmentsFile, logger)

	a.cycle = services.NewCycle(services.CycleDeps{
		TargetURL: cfg.TargetURL,
		Renderer:  olx.NewBrowser(cfg, logger),
		Extractor: extractor,
		Filter:    services.NewLocationFilter(cfg.LocationFilter, cfg.EmptyFilterPolicy, logger),
		Diff:      services.NewDiffEngine(store, time.Now, logger),
		Notifier:  services.NewNotifier(telegram, cfg.ChatIDs, loc, a.metrics, logger),
		Mirror:    a.mirror,
		Metrics:   a.metrics,
		Logger:    logger,
		Interval:  cfg.Interval(),
	})

	return a, nil
}

func (a *app) close() {
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			a.logger.Warn("Closing postgres mirror: %v", err)
		}
	}
}
