package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/leapstack-labs/chartdash/internal/table"
)

// DefaultTTL is how long an unused workspace is kept.
const DefaultTTL = 30 * time.Minute

const seedDebounce = 100 * time.Millisecond

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Logger   *slog.Logger
	Notifier Broadcaster

	// TTL evicts workspaces unused for longer. Zero means DefaultTTL.
	TTL time.Duration

	// SeedPath, when set, is uploaded into every new workspace.
	SeedPath string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Registry owns the workspaces of all connected browsers.
type Registry struct {
	logger   *slog.Logger
	notifier Broadcaster
	ttl      time.Duration
	seedPath string
	now      func() time.Time

	mu         sync.RWMutex
	workspaces map[string]*Workspace
	seed       string
}

// NewRegistry creates a registry. When a seed path is configured it is
// read once up front so that a missing file is reported at startup.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := &Registry{
		logger:     cfg.Logger,
		notifier:   cfg.Notifier,
		ttl:        cfg.TTL,
		seedPath:   cfg.SeedPath,
		now:        cfg.Now,
		workspaces: make(map[string]*Workspace),
	}

	if r.seedPath != "" {
		payload, err := table.PayloadFromFile(r.seedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		r.seed = payload
	}
	return r, nil
}

// Create makes a new workspace with a random id. It starts with the seed
// file uploaded if one is configured.
func (r *Registry) Create() *Workspace {
	id := uuid.NewString()
	w := NewWorkspace(WorkspaceConfig{
		ID:       id,
		Logger:   r.logger,
		Notifier: r.notifier,
		Now:      r.now,
	})

	r.mu.Lock()
	r.workspaces[id] = w
	seed := r.seed
	r.mu.Unlock()

	if seed != "" {
		w.uploadSeed(seed, filepath.Base(r.seedPath))
	}
	r.logger.Debug("workspace created", "workspace", id)
	return w
}

// Get returns the workspace with the given id.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.RLock()
	w, ok := r.workspaces[id]
	r.mu.RUnlock()
	return w, ok
}

// GetOrCreate returns the workspace for id, creating a fresh one when id is
// unknown or has been evicted.
func (r *Registry) GetOrCreate(id string) *Workspace {
	if w, ok := r.Get(id); ok {
		return w
	}
	return r.Create()
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// Sweep evicts workspaces idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, w := range r.workspaces {
		last, idle := w.idleSince()
		if idle && last.Before(cutoff) {
			delete(r.workspaces, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("evicted idle workspaces", "count", removed, "remaining", len(r.workspaces))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled. A zero
// interval sweeps at a quarter of the TTL.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = r.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Reseed re-reads the seed file and uploads it into every workspace that is
// still showing the seed. Workspaces where the user uploaded their own file
// are left alone.
func (r *Registry) Reseed() error {
	if r.seedPath == "" {
		return nil
	}
	payload, err := table.PayloadFromFile(r.seedPath)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.seed = payload
	targets := make([]*Workspace, 0, len(r.workspaces))
	for _, w := range r.workspaces {
		targets = append(targets, w)
	}
	r.mu.Unlock()

	name := filepath.Base(r.seedPath)
	reseeded := 0
	for _, w := range targets {
		if !w.isSeeded() {
			continue
		}
		w.uploadSeed(payload, name)
		reseeded++
	}
	r.logger.Info("seed file reloaded", "file", r.seedPath, "workspaces", reseeded)
	return nil
}

// WatchSeed reloads the seed file whenever it changes on disk, until ctx is
// cancelled. The parent directory is watched so that editors which replace
// the file on save are handled.
func (r *Registry) WatchSeed(ctx context.Context) error {
	if r.seedPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(r.seedPath)); err != nil {
		r.logger.Error("failed to watch seed file", "file", r.seedPath, "error", err)
		<-ctx.Done()
		return nil
	}

	target := filepath.Clean(r.seedPath)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(seedDebounce, func() {
				r.logger.Debug("seed file changed", "file", event.Name)
				if err := r.Reseed(); err != nil {
					r.logger.Error("failed to reload seed file", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher error", "error", err)
		}
	}
}
