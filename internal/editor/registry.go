package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reflectai/reflectai/internal/metrics"
	"github.com/reflectai/reflectai/internal/mindmap"
)

// Store loads and saves trees. treestore.Store satisfies it.
type Store interface {
	Saver
	Load(ctx context.Context, ownerID, categoryID string) (*mindmap.Node, string, error)
}

// RegistryOpts configures a Registry.
type RegistryOpts struct {
	Store       Store
	SaveTimeout time.Duration
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

type key struct {
	ownerID    string
	categoryID string
}

// Registry keeps one live Editor per (owner, category) so concurrent
// requests against the same tree share a lock and a save queue.
type Registry struct {
	store   Store
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	editors map[key]*Editor
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOpts) (*Registry, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("editor: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		store:   opts.Store,
		timeout: opts.SaveTimeout,
		log:     opts.Logger,
		metrics: opts.Metrics,
		editors: make(map[key]*Editor),
	}, nil
}

// Get returns the editor for a tree, loading it on first use.
func (r *Registry) Get(ctx context.Context, ownerID, categoryID string) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{ownerID, categoryID}
	if ed, ok := r.editors[k]; ok {
		return ed, nil
	}

	root, title, err := r.store.Load(ctx, ownerID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("editor: load %s/%s: %w", ownerID, categoryID, err)
	}
	syncer, err := NewSyncer(SyncerOpts{
		Saver:      r.store,
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Timeout:    r.timeout,
		Logger:     r.log,
		Metrics:    r.metrics,
	})
	if err != nil {
		return nil, err
	}
	ed, err := New(Options{
		OwnerID:    ownerID,
		CategoryID: categoryID,
		Title:      title,
		Root:       root,
		Syncer:     syncer,
		Logger:     r.log,
		Metrics:    r.metrics,
	})
	if err != nil {
		return nil, err
	}
	r.editors[k] = ed
	if r.metrics != nil {
		r.metrics.EditorsOpen.Set(float64(len(r.editors)))
	}
	return ed, nil
}

// Forget flushes and drops the editor for a tree, so the next Get reloads
// it from storage.
func (r *Registry) Forget(ctx context.Context, ownerID, categoryID string) error {
	r.mu.Lock()
	k := key{ownerID, categoryID}
	ed, ok := r.editors[k]
	delete(r.editors, k)
	if r.metrics != nil {
		r.metrics.EditorsOpen.Set(float64(len(r.editors)))
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return ed.Close(ctx)
}

// Close flushes every editor and empties the registry.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[key]*Editor)
	r.mu.Unlock()

	var errs []error
	for k, ed := range editors {
		if err := ed.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s/%s: %w", k.ownerID, k.categoryID, err))
		}
	}
	if r.metrics != nil {
		r.metrics.EditorsOpen.Set(0)
	}
	return errors.Join(errs...)
}
