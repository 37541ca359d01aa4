// Package weights manages the versioned, append-only history of factor weight sets.
package weights

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/rank-engine/internal/types"
)

// Store persists weight set versions. Versions are assigned by the store and never reused.
type Store interface {
	// ActiveWeightSet returns the highest version, or nil if none exists.
	ActiveWeightSet(ctx context.Context) (*types.WeightSet, error)
	// AppendWeightSet stores ws as the next version and returns it with Version and EffectiveAt set.
	AppendWeightSet(ctx context.Context, ws types.WeightSet) (*types.WeightSet, error)
	// ListWeightSets returns up to limit versions, newest first.
	ListWeightSets(ctx context.Context, limit int) ([]types.WeightSet, error)
}

// Listener is called after the active weight set changes.
type Listener func(ctx context.Context, ws types.WeightSet)

// DefaultCacheTTL bounds how long another process's weight change can go unnoticed.
const DefaultCacheTTL = 5 * time.Second

// Registry serves the active weight set and accepts new versions.
type Registry struct {
	store    Store
	logger   *slog.Logger
	cacheTTL time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	active    *types.WeightSet
	loadedAt  time.Time
	listeners []Listener
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:    store,
		logger:   logger,
		cacheTTL: DefaultCacheTTL,
		now:      time.Now,
	}
}

// SetCacheTTL overrides the active weight cache lifetime. Zero disables caching.
func (r *Registry) SetCacheTTL(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheTTL = ttl
}

// OnChange registers a listener for weight set changes.
func (r *Registry) OnChange(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Active returns the current weight set, bootstrapping the default if the store is empty.
func (r *Registry) Active(ctx context.Context) (types.WeightSet, error) {
	r.mu.RLock()
	if r.active != nil && r.now().Sub(r.loadedAt) < r.cacheTTL {
		ws := *r.active
		r.mu.RUnlock()
		return ws, nil
	}
	r.mu.RUnlock()

	return r.Refresh(ctx)
}

// Refresh reloads the active weight set from the store.
// Listeners fire if the version moved since the last load.
func (r *Registry) Refresh(ctx context.Context) (types.WeightSet, error) {
	ws, err := r.store.ActiveWeightSet(ctx)
	if err != nil {
		return types.WeightSet{}, fmt.Errorf("failed to load active weight set: %w", err)
	}
	if ws == nil {
		return r.EnsureDefault(ctx)
	}
	r.setActive(ctx, *ws)
	return *ws, nil
}

// EnsureDefault stores the default weight set if no version exists and returns the active set.
func (r *Registry) EnsureDefault(ctx context.Context) (types.WeightSet, error) {
	existing, err := r.store.ActiveWeightSet(ctx)
	if err != nil {
		return types.WeightSet{}, fmt.Errorf("failed to load active weight set: %w", err)
	}
	if existing != nil {
		r.setActive(ctx, *existing)
		return *existing, nil
	}

	saved, err := r.store.AppendWeightSet(ctx, Default())
	if err != nil {
		return types.WeightSet{}, fmt.Errorf("failed to store default weight set: %w", err)
	}
	r.logger.Info("bootstrapped default weight set", "version", saved.Version)
	r.setActive(ctx, *saved)
	return *saved, nil
}

// Propose validates a proposal and appends it as the new active version.
// Earlier versions are never modified.
func (r *Registry) Propose(ctx context.Context, p types.WeightProposal) (types.WeightSet, error) {
	ws, err := Normalize(p)
	if err != nil {
		return types.WeightSet{}, err
	}

	saved, err := r.store.AppendWeightSet(ctx, ws)
	if err != nil {
		return types.WeightSet{}, fmt.Errorf("failed to append weight set: %w", err)
	}

	r.logger.Info("weight set activated",
		"version", saved.Version,
		"created_by", saved.CreatedBy,
		"skills", saved.Skills,
		"experience", saved.Experience,
		"education", saved.Education,
		"certifications", saved.Certifications,
		"profile_completeness", saved.ProfileCompleteness)

	r.setActive(ctx, *saved)
	return *saved, nil
}

// History returns up to limit weight set versions, newest first.
func (r *Registry) History(ctx context.Context, limit int) ([]types.WeightSet, error) {
	if limit <= 0 {
		limit = 50
	}
	sets, err := r.store.ListWeightSets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight sets: %w", err)
	}
	return sets, nil
}

func (r *Registry) setActive(ctx context.Context, ws types.WeightSet) {
	r.mu.Lock()
	changed := r.active != nil && r.active.Version != ws.Version
	first := r.active == nil
	r.active = &ws
	r.loadedAt = r.now()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	if changed || first {
		for _, l := range listeners {
			l(ctx, ws)
		}
	}
}
