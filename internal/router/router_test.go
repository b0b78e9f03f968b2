package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/notifier"
)

type mockNotifier struct {
	name     string
	received []notifier.Digest
	fail     bool
}

func (m *mockNotifier) Name() string { return m.name }
func (m *mockNotifier) Send(ctx context.Context, d notifier.Digest) error {
	m.received = append(m.received, d)
	if m.fail {
		return errors.New("delivery failed")
	}
	return nil
}

type mockRecorder struct {
	calls map[string]string
}

func (m *mockRecorder) RecordReportRouted(n, status string) {
	if m.calls == nil {
		m.calls = make(map[string]string)
	}
	m.calls[n] = status
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestRouter(cfg Config, notifiers ...notifier.Notifier) (*Router, *fakeClock) {
	registry := notifier.NewRegistry()
	for _, n := range notifiers {
		registry.Register(n)
	}
	r := New(cfg, registry, nil)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r.now = clock.now
	return r, clock
}

func TestRouter_Route_PassesFilters(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(Config{MinConfidence: 0.5, CooldownDuration: time.Minute}, mock)

	routed, err := r.Route(context.Background(), notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !routed {
		t.Error("expected digest to be routed")
	}
	if len(mock.received) != 1 {
		t.Errorf("expected 1 digest, got %d", len(mock.received))
	}
}

func TestRouter_Route_FilterByConfidence(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(Config{MinConfidence: 0.7, CooldownDuration: time.Minute}, mock)

	routed, _ := r.Route(context.Background(), notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.5})

	if routed || len(mock.received) != 0 {
		t.Errorf("low confidence digest should be filtered, got %d digests", len(mock.received))
	}
}

func TestRouter_Route_FilterByRegime(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(Config{
		MinConfidence:  0.5,
		EnabledRegimes: []core.GlobalRegime{core.GlobalRiskOff},
	}, mock)

	r.Route(context.Background(), notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.9})
	r.Route(context.Background(), notifier.Digest{GlobalRegime: core.GlobalRiskOff, Confidence: 0.9})

	if len(mock.received) != 1 || mock.received[0].GlobalRegime != core.GlobalRiskOff {
		t.Errorf("expected only RISK_OFF to pass, got %v", mock.received)
	}
}

func TestRouter_Route_Cooldown(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, clock := newTestRouter(Config{MinConfidence: 0.5, CooldownDuration: time.Hour}, mock)
	ctx := context.Background()
	d := notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.8}

	r.Route(ctx, d)
	clock.t = clock.t.Add(30 * time.Minute)
	if routed, _ := r.Route(ctx, d); routed {
		t.Error("expected repeat of the same regime to be suppressed during cooldown")
	}

	// A different regime is not in cooldown.
	if routed, _ := r.Route(ctx, notifier.Digest{GlobalRegime: core.GlobalRiskOff, Confidence: 0.8}); !routed {
		t.Error("expected regime change to be routed")
	}

	clock.t = clock.t.Add(time.Hour)
	if routed, _ := r.Route(ctx, d); !routed {
		t.Error("expected digest to be routed after cooldown")
	}

	if len(mock.received) != 3 {
		t.Errorf("expected 3 digests, got %d", len(mock.received))
	}
}

func TestRouter_Route_NotifierFailure(t *testing.T) {
	good := &mockNotifier{name: "good"}
	bad := &mockNotifier{name: "bad", fail: true}
	r, _ := newTestRouter(Config{MinConfidence: 0.5}, good, bad)
	rec := &mockRecorder{}
	r.SetRecorder(rec)

	routed, err := r.Route(context.Background(), notifier.Digest{GlobalRegime: core.GlobalMixedSignals, Confidence: 0.6})
	if !routed {
		t.Error("expected digest to be routed")
	}
	if !errors.Is(err, core.ErrNotifierFailed) {
		t.Errorf("expected ErrNotifierFailed, got %v", err)
	}
	if rec.calls["good"] != "success" || rec.calls["bad"] != "failure" {
		t.Errorf("unexpected recorder calls: %v", rec.calls)
	}
}

func TestRouter_Route_NilRegistry(t *testing.T) {
	r := New(Config{MinConfidence: 0.5}, nil, nil)

	routed, err := r.Route(context.Background(), notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.9})
	if err != nil || !routed {
		t.Errorf("expected routed without error, got %v %v", routed, err)
	}
}

func TestRouter_ClearCooldown(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(Config{MinConfidence: 0.5, CooldownDuration: time.Hour}, mock)
	ctx := context.Background()
	d := notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.8}

	r.Route(ctx, d)
	r.ClearCooldown(core.GlobalRiskOn)
	r.Route(ctx, d)

	if len(mock.received) != 2 {
		t.Errorf("expected 2 digests after clearing cooldown, got %d", len(mock.received))
	}

	r.ClearAllCooldowns()
	if stats := r.GetStats(); stats["cooldowns_active"] != 0 {
		t.Errorf("expected no active cooldowns, got %v", stats["cooldowns_active"])
	}
}

func TestRouter_CleanupExpiredCooldowns(t *testing.T) {
	r, clock := newTestRouter(Config{MinConfidence: 0.5, CooldownDuration: time.Hour})
	ctx := context.Background()

	r.Route(ctx, notifier.Digest{GlobalRegime: core.GlobalRiskOn, Confidence: 0.8})
	clock.t = clock.t.Add(90 * time.Minute)
	r.Route(ctx, notifier.Digest{GlobalRegime: core.GlobalRiskOff, Confidence: 0.8})
	clock.t = clock.t.Add(45 * time.Minute)

	if removed := r.CleanupExpiredCooldowns(); removed != 1 {
		t.Errorf("expected 1 expired cooldown, got %d", removed)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"confidence above one", Config{MinConfidence: 1.5}, true},
		{"negative confidence", Config{MinConfidence: -0.1}, true},
		{"negative cooldown", Config{MinConfidence: 0.5, CooldownDuration: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
