package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	MinConfidence    float64             `mapstructure:"min_confidence" json:"min_confidence"`
	CooldownDuration time.Duration       `mapstructure:"cooldown_duration" json:"cooldown_duration"`
	EnabledRegimes   []core.GlobalRegime `mapstructure:"enabled_regimes" json:"enabled_regimes"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		MinConfidence:    0.6,
		CooldownDuration: 4 * time.Hour,
	}
}

// Validate checks the gate thresholds.
func (c Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_confidence must be between 0 and 1, got %f", c.MinConfidence))
	}
	if c.CooldownDuration < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cooldown_duration cannot be negative, got %s", c.CooldownDuration))
	}
	return nil
}

// Recorder receives per-notifier delivery outcomes.
type Recorder interface {
	RecordReportRouted(notifier, status string)
}

// Router gates report digests on confidence and a per-regime cooldown,
// then fans them out to the registered notifiers.
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	recorder  Recorder
	logger    *zap.Logger
	cooldowns map[core.GlobalRegime]time.Time
	now       func() time.Time
	mu        sync.RWMutex
}

// New creates a new digest router
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		cooldowns: make(map[core.GlobalRegime]time.Time),
		now:       time.Now,
	}
}

// SetRecorder sets the delivery metrics sink.
func (r *Router) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// Route delivers the digest if it passes the gate. It reports whether the
// digest was delivered and returns an error matching core.ErrNotifierFailed
// when any notifier failed.
func (r *Router) Route(ctx context.Context, d notifier.Digest) (bool, error) {
	if !r.passesFilters(d) {
		r.logger.Debug("digest filtered out",
			zap.String("report_id", d.ReportID),
			zap.String("global_regime", string(d.GlobalRegime)),
			zap.Float64("confidence", d.Confidence),
		)
		return false, nil
	}

	r.mu.Lock()
	r.cooldowns[d.GlobalRegime] = r.now()
	r.mu.Unlock()

	// nil registry is allowed
	if r.registry == nil {
		return true, nil
	}

	errs := r.registry.NotifyAll(ctx, d)
	for _, n := range r.registry.GetAll() {
		status := "success"
		if err, failed := errs[n.Name()]; failed {
			status = "failure"
			r.logger.Error("notifier failed",
				zap.String("notifier", n.Name()),
				zap.Error(err),
			)
		}
		if r.recorder != nil {
			r.recorder.RecordReportRouted(n.Name(), status)
		}
	}

	r.logger.Info("digest routed",
		zap.String("report_id", d.ReportID),
		zap.String("global_regime", string(d.GlobalRegime)),
		zap.Float64("confidence", d.Confidence),
		zap.Int("notifiers", r.registry.Len()),
		zap.Int("errors", len(errs)),
	)

	if len(errs) > 0 {
		return true, core.WrapError(core.ErrNotifierFailed,
			fmt.Errorf("%d of %d notifiers failed", len(errs), r.registry.Len()))
	}
	return true, nil
}

// passesFilters checks if a digest passes all configured filters
func (r *Router) passesFilters(d notifier.Digest) bool {
	if d.Confidence < r.cfg.MinConfidence {
		return false
	}

	if len(r.cfg.EnabledRegimes) > 0 {
		allowed := false
		for _, g := range r.cfg.EnabledRegimes {
			if d.GlobalRegime == g {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	r.mu.RLock()
	last, exists := r.cooldowns[d.GlobalRegime]
	r.mu.RUnlock()

	return !exists || r.now().Sub(last) >= r.cfg.CooldownDuration
}

// ClearCooldown removes the cooldown of one regime
func (r *Router) ClearCooldown(regime core.GlobalRegime) {
	r.mu.Lock()
	delete(r.cooldowns, regime)
	r.mu.Unlock()
}

// ClearAllCooldowns removes all cooldowns
func (r *Router) ClearAllCooldowns() {
	r.mu.Lock()
	r.cooldowns = make(map[core.GlobalRegime]time.Time)
	r.mu.Unlock()
}

// CleanupExpiredCooldowns removes cooldown entries older than 2x the cooldown duration.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	expiry := r.cfg.CooldownDuration * 2
	removed := 0

	for regime, last := range r.cooldowns {
		if now.Sub(last) > expiry {
			delete(r.cooldowns, regime)
			removed++
		}
	}

	return removed
}

// StartCleanupRoutine periodically drops expired cooldowns until ctx is done.
func (r *Router) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := r.CleanupExpiredCooldowns(); removed > 0 {
					r.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]any{
		"cooldowns_active": len(r.cooldowns),
		"min_confidence":   r.cfg.MinConfidence,
		"cooldown_seconds": r.cfg.CooldownDuration.Seconds(),
		"enabled_regimes":  r.cfg.EnabledRegimes,
	}
}
