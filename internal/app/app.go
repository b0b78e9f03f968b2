package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/macrolens/internal/config"
	"github.com/newthinker/macrolens/internal/dataset"
	"github.com/newthinker/macrolens/internal/fusion"
	"github.com/newthinker/macrolens/internal/macro"
	"github.com/newthinker/macrolens/internal/market"
	"github.com/newthinker/macrolens/internal/metrics"
	"github.com/newthinker/macrolens/internal/notifier"
	"github.com/newthinker/macrolens/internal/report"
	"github.com/newthinker/macrolens/internal/router"
	"github.com/newthinker/macrolens/internal/sentiment"
	"github.com/newthinker/macrolens/internal/source"
	"github.com/newthinker/macrolens/internal/storage/archive"
	"github.com/newthinker/macrolens/internal/storage/history"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// App is the main application orchestrator
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	runner    *source.Runner
	engine    *fusion.Engine
	notifiers *notifier.Registry
	router    *router.Router
	history   history.Store
	archive   archive.Storage
	metrics   *metrics.Registry
	now       func() time.Time

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	runs     int
	failures int
	lastRun  time.Time
	lastID   string
}

// New builds the three classifiers, the source runner, the fusion engine
// and the notification router from cfg. Reports are kept in memory until
// SetHistory installs another store.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	analyzer, err := macro.NewAnalyzer(cfg.Macro, logger.Named("macro"))
	if err != nil {
		return nil, err
	}
	mkt, err := market.NewClassifier(cfg.Market, logger.Named("market"))
	if err != nil {
		return nil, err
	}
	sent, err := sentiment.NewClassifier(cfg.Sentiment, logger.Named("sentiment"))
	if err != nil {
		return nil, err
	}
	engine, err := fusion.NewEngine(cfg.Fusion, logger.Named("fusion"))
	if err != nil {
		return nil, err
	}

	runner := source.NewRunner(cfg.Sources.Timeout, logger.Named("source"))
	runner.Register(source.NewDomestic(analyzer))
	runner.Register(source.NewMarket(mkt))
	runner.Register(source.NewSentiment(sent))

	notifiers := notifier.NewRegistry()

	return &App{
		cfg:       cfg,
		logger:    logger,
		runner:    runner,
		engine:    engine,
		notifiers: notifiers,
		router:    router.New(cfg.Router, notifiers, logger.Named("router")),
		history:   history.NewMemoryStore(cfg.Storage.History.MemoryCapacity),
		now:       time.Now,
	}, nil
}

// SetHistory replaces the report history store.
func (a *App) SetHistory(s history.Store) {
	a.history = s
}

// SetArchive enables archiving of every report to s.
func (a *App) SetArchive(s archive.Storage) {
	a.archive = s
}

// SetMetrics enables analysis, source and delivery metrics.
func (a *App) SetMetrics(m *metrics.Registry) {
	a.metrics = m
	if m != nil {
		a.router.SetRecorder(m)
	}
}

// RegisterNotifier adds a notifier to the app
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

// RegisterSource adds a source, replacing a built-in one of the same name.
func (a *App) RegisterSource(s source.Source) {
	a.runner.Register(s)
}

// History returns the report history store.
func (a *App) History() history.Store {
	return a.history
}

// Analyze runs every source against snap, fuses the available results and
// returns the report. Persisting, archiving and routing failures are logged
// and never fail the analysis.
func (a *App) Analyze(ctx context.Context, snap source.Snapshot) (*report.Report, error) {
	start := time.Now()

	outcomes := a.runner.Run(ctx, snap)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}
	if a.metrics != nil {
		for _, o := range outcomes {
			a.metrics.RecordSource(o.Source, report.Status(o), o.Duration.Seconds())
		}
	}

	fused := a.engine.Fuse(source.Inputs(outcomes))
	rep := report.New(outcomes, fused, a.now())

	if a.metrics != nil {
		a.metrics.RecordAnalysis(string(fused.GlobalRegime), fused.IntegrationConfidence,
			fused.WeightedTilt, time.Since(start).Seconds())
	}

	a.logger.Info("analysis complete",
		zap.String("report_id", rep.ID),
		zap.String("global_regime", string(fused.GlobalRegime)),
		zap.Float64("confidence", fused.IntegrationConfidence),
		zap.Float64("tilt", fused.WeightedTilt),
		zap.Int("sources", len(fused.Inputs)),
		zap.Duration("duration", time.Since(start)),
	)

	a.persist(ctx, rep)

	if _, err := a.router.Route(ctx, rep.Digest()); err != nil {
		a.logger.Error("failed to route report",
			zap.String("report_id", rep.ID),
			zap.Error(err),
		)
	}

	return rep, nil
}

func (a *App) persist(ctx context.Context, rep *report.Report) {
	if a.history != nil {
		if err := a.history.Save(ctx, rep); err != nil {
			a.logger.Error("failed to save report",
				zap.String("report_id", rep.ID),
				zap.Error(err),
			)
		}
	}
	if a.archive != nil {
		key, err := archive.PutReport(ctx, a.archive, rep)
		if err != nil {
			a.logger.Error("failed to archive report",
				zap.String("report_id", rep.ID),
				zap.Error(err),
			)
			return
		}
		a.logger.Debug("report archived", zap.String("key", key))
	}
}

// Reports lists stored reports, newest first.
func (a *App) Reports(ctx context.Context, filter history.ListFilter) ([]*report.Report, error) {
	return a.history.List(ctx, filter)
}

// Report returns a stored report by ID.
func (a *App) Report(ctx context.Context, id string) (*report.Report, error) {
	return a.history.Get(ctx, id)
}

// Start runs one analysis from the configured input files, then reruns it
// on the configured cron schedule until ctx is canceled or Stop is called.
func (a *App) Start(ctx context.Context) error {
	sched := a.cfg.Schedule
	if sched.Inputs.Empty() {
		return fmt.Errorf("schedule has no input files")
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	defer func() {
		cancel()
		a.mu.Lock()
		a.running = false
		a.cancel = nil
		a.mu.Unlock()
	}()

	clog := cronLogger{a.logger.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(sched.Cron, func() { a.RunOnce(ctx, sched.Inputs) }); err != nil {
		return fmt.Errorf("scheduling analysis %q: %w", sched.Cron, err)
	}

	a.logger.Info("macrolens scheduler starting",
		zap.String("cron", sched.Cron),
		zap.String("observations", sched.Inputs.Observations),
		zap.String("bars", sched.Inputs.Bars),
		zap.String("snapshot", sched.Inputs.Snapshot),
	)

	a.router.StartCleanupRoutine(ctx, time.Hour)

	// Initial run
	a.RunOnce(ctx, sched.Inputs)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	a.logger.Info("macrolens scheduler stopped")
	return ctx.Err()
}

// Stop stops the scheduler
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce loads files and analyzes them once. Failures are logged.
func (a *App) RunOnce(ctx context.Context, files dataset.Files) {
	snap, err := files.Load()
	if err == nil {
		var rep *report.Report
		rep, err = a.Analyze(ctx, snap)
		if err == nil {
			a.mu.Lock()
			a.runs++
			a.lastRun = rep.GeneratedAt
			a.lastID = rep.ID
			a.mu.Unlock()
			return
		}
	}

	a.mu.Lock()
	a.failures++
	a.mu.Unlock()
	a.logger.Error("scheduled analysis failed", zap.Error(err))
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"running":   a.running,
		"runs":      a.runs,
		"failures":  a.failures,
		"sources":   len(a.runner.GetAll()),
		"notifiers": a.notifiers.Len(),
		"router":    a.router.GetStats(),
	}
	if !a.lastRun.IsZero() {
		stats["last_run"] = a.lastRun
		stats["last_report_id"] = a.lastID
	}
	return stats
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
