// Package rates maintains the USD-based exchange rate snapshot used for
// currency conversion. The snapshot is fetched from openexchangerates,
// persisted as a JSON file across restarts, and refreshed at most once per
// UTC hour.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultURL = "https://openexchangerates.org/api/latest.json"

var (
	ErrNoSnapshot      = errors.New("no rate snapshot available")
	ErrUnknownCurrency = errors.New("unknown currency code")
)

// Snapshot is one fetched set of USD-based rates.
type Snapshot struct {
	Timestamp time.Time          `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// Cache keeps the latest snapshot in memory and mirrored on disk.
type Cache struct {
	url    string
	appID  string
	path   string
	log    *zap.Logger
	client *http.Client
	now    func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

// New creates a Cache persisting to path. A snapshot left on disk by a
// previous run is loaded immediately so conversions work before the first
// fetch completes.
func New(appID, path string, log *zap.Logger) *Cache {
	c := &Cache{
		url:    defaultURL,
		appID:  appID,
		path:   path,
		log:    log,
		client: &http.Client{Timeout: 15 * time.Second},
		now:    time.Now,
	}
	if err := c.loadFromDisk(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("rates cache unreadable, will refetch", zap.Error(err))
	}
	return c
}

// Refresh fetches a new snapshot unless the current one is from the same UTC
// hour as now.
func (c *Cache) Refresh(ctx context.Context) error {
	now := c.now().UTC()
	if snap := c.snapshot(); snap != nil && snap.Timestamp.Truncate(time.Hour).Equal(now.Truncate(time.Hour)) {
		c.log.Debug("rates fetched this hour already, skipping")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?app_id="+c.appID, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rates fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rates fetch: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("rates fetch: decode: %w", err)
	}
	if len(payload.Rates) == 0 {
		return fmt.Errorf("rates fetch: empty rate table")
	}

	snap := &Snapshot{Timestamp: now, Rates: payload.Rates}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	if err := c.persist(snap); err != nil {
		c.log.Warn("could not persist rates cache", zap.Error(err))
	}
	c.log.Info("exchange rates updated", zap.Int("currencies", len(snap.Rates)))
	return nil
}

// Run refreshes the snapshot on an hourly ticker until ctx is canceled.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rates refresher stopping")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Error("rates refresh failed", zap.Error(err))
			}
		}
	}
}

// Convert converts amount between two currency codes using the current
// snapshot, returning the result, the unit rate and the snapshot time.
func (c *Cache) Convert(amount float64, from, to string) (result, rate float64, at time.Time, err error) {
	snap := c.snapshot()
	if snap == nil {
		return 0, 0, time.Time{}, ErrNoSnapshot
	}
	fromRate, okFrom := snap.Rates[from]
	toRate, okTo := snap.Rates[to]
	if !okFrom || !okTo || fromRate == 0 {
		return 0, 0, time.Time{}, fmt.Errorf("%w: %s to %s", ErrUnknownCurrency, from, to)
	}
	rate = toRate / fromRate
	return amount * rate, rate, snap.Timestamp, nil
}

func (c *Cache) snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Cache) loadFromDisk() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if len(snap.Rates) == 0 {
		return errors.New("cached rate table is empty")
	}
	c.mu.Lock()
	c.snap = &snap
	c.mu.Unlock()
	c.log.Info("loaded rates cache from disk", zap.Time("timestamp", snap.Timestamp))
	return nil
}

func (c *Cache) persist(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
