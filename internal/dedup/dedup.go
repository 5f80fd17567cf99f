// Package dedup decides, for each incoming error signal, whether it is
// a repeat of something seen recently and at what cadence repeats are
// worth logging or alerting on.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"errgate/internal/cache"
	"errgate/internal/config"
	"errgate/internal/model"
	"errgate/internal/signature"
)

// Repeat cadence. Every logEvery-th occurrence of an entry is logged,
// as is any repeat arriving more than relogAfter since the previous
// sighting. Every alertEvery-th occurrence alerts.
const (
	logEvery   = 10
	alertEvery = 50
	relogAfter = 5 * time.Minute
)

// Callbacks are invoked synchronously from Process. OnDuplicate sees
// the entry after its count has been updated.
type Callbacks struct {
	OnDuplicate func(sig model.Signal, entry model.Entry)
	OnNewError  func(sig model.Signal)
}

// AlertSink receives records for outcomes that passed the alert gate.
type AlertSink interface {
	SaveAlert(ctx context.Context, rec model.AlertRecord) error
}

type Deduplicator struct {
	logger    *slog.Logger
	store     *cache.Store
	cfg       atomic.Value
	cbs       Callbacks
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
	sweeperWG sync.WaitGroup
}

// New builds a deduplicator from configuration and starts its periodic
// sweep. Close stops the sweep; synchronous calls remain usable after.
func New(cfg *config.Config, logger *slog.Logger, cbs Callbacks) *Deduplicator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Deduplicator{
		logger: logger,
		store:  cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL(), cfg.Cache.SimilarityThreshold),
		cbs:    cbs,
		now:    func() time.Time { return time.Now().UTC() },
		stop:   make(chan struct{}),
	}
	d.cfg.Store(cfg)
	d.sweeperWG.Add(1)
	go d.runSweeper(cfg.Cache.CleanupInterval())
	return d
}

// UpdateConfig swaps the policy configuration. Only the enabled flag
// takes effect live; store bounds are fixed at construction.
func (d *Deduplicator) UpdateConfig(cfg *config.Config) {
	if cfg != nil {
		d.cfg.Store(cfg)
	}
}

func (d *Deduplicator) config() *config.Config {
	if v := d.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

// Process runs one signal through the cache and derives the log/alert
// verdict.
func (d *Deduplicator) Process(sig model.Signal) model.Outcome {
	cfg := d.config()
	if !cfg.Dedup.Enabled {
		return model.Outcome{
			ShouldLog:   true,
			ShouldAlert: true,
			Key:         signature.Key(sig.Code, sig.Message, sig.Context),
		}
	}

	res := d.store.Add(sig)
	entry := res.Entry
	out := model.Outcome{
		Duplicate: res.Duplicate,
		Entry:     &entry,
		Key:       entry.Key,
	}
	if !res.Duplicate {
		if d.cbs.OnNewError != nil {
			d.cbs.OnNewError(sig)
		}
		out.ShouldLog = true
		out.ShouldAlert = true
		return out
	}

	if d.cbs.OnDuplicate != nil {
		d.cbs.OnDuplicate(sig, entry)
	}
	out.ShouldLog = entry.Count%logEvery == 0 || d.now().Sub(res.PrevSeen) > relogAfter
	// Count==1 cannot occur on the duplicate path (a duplicate has
	// already been counted at least twice); the branch is kept to match
	// the published policy contract.
	out.ShouldAlert = entry.Count == 1 || entry.Count%alertEvery == 0
	return out
}

// Start consumes signals from the channel until the context is done.
// Outcomes that pass the alert gate are forwarded to the sink.
func (d *Deduplicator) Start(ctx context.Context, in <-chan model.Signal, sink AlertSink) {
	go func() {
		for {
			select {
			case sig := <-in:
				d.handle(ctx, sig, sink)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *Deduplicator) handle(ctx context.Context, sig model.Signal, sink AlertSink) {
	out := d.Process(sig)
	count := 1
	if out.Entry != nil {
		count = out.Entry.Count
	}
	if out.ShouldLog {
		if d.logger != nil {
			d.logger.Warn("error signal",
				"code", sig.Code,
				"severity", sig.Severity(),
				"count", count,
				"duplicate", out.Duplicate,
				"key", out.Key,
			)
		}
	} else if d.logger != nil {
		d.logger.Debug("suppressed duplicate", "key", out.Key, "count", count)
	}
	if out.ShouldAlert && sink != nil {
		rec := model.AlertRecord{
			Timestamp: d.now(),
			Key:       out.Key,
			Code:      sig.Code,
			Message:   sig.Message,
			Severity:  sig.Severity(),
			Count:     count,
			Source:    sig.Source,
		}
		if err := sink.SaveAlert(ctx, rec); err != nil && d.logger != nil {
			d.logger.Error("save alert failed", "err", err)
		}
	}
}

// ClearExpired sweeps TTL-expired entries now and returns the count
// removed.
func (d *Deduplicator) ClearExpired() int {
	return d.store.Sweep(d.now())
}

func (d *Deduplicator) Clear() {
	d.store.Clear()
}

func (d *Deduplicator) Stats() model.Stats {
	return d.store.Stats()
}

func (d *Deduplicator) Get(key string) (model.Entry, bool) {
	return d.store.Get(key)
}

func (d *Deduplicator) Remove(key string) bool {
	return d.store.Remove(key)
}

func (d *Deduplicator) All() []model.Entry {
	return d.store.All()
}

func (d *Deduplicator) MostFrequent(limit int) []model.Entry {
	return d.store.MostFrequent(limit)
}

func (d *Deduplicator) MostRecent(limit int) []model.Entry {
	return d.store.MostRecent(limit)
}

func (d *Deduplicator) ByCode(code string) []model.Entry {
	return d.store.ByCode(code)
}

func (d *Deduplicator) BySeverity(sev model.Severity) []model.Entry {
	return d.store.BySeverity(sev)
}

// Close cancels the periodic sweep. Idempotent.
func (d *Deduplicator) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.sweeperWG.Wait()
}

func (d *Deduplicator) runSweeper(interval time.Duration) {
	defer d.sweeperWG.Done()
	if interval <= 0 {
		interval = 1 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := d.store.Sweep(d.now()); removed > 0 && d.logger != nil {
				d.logger.Debug("swept expired entries", "removed", removed)
			}
		case <-d.stop:
			return
		}
	}
}
