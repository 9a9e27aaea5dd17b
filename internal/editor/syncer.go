package editor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reflectai/reflectai/internal/metrics"
	"github.com/reflectai/reflectai/internal/mindmap"
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 10 * time.Second

// Saver persists one tree snapshot. treestore.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, ownerID, categoryID string, root *mindmap.Node, title string) error
}

// Snapshot is one immutable tree version handed to the syncer.
type Snapshot struct {
	Root  *mindmap.Node
	Title string
}

// SyncerOpts configures a Syncer.
type SyncerOpts struct {
	Saver      Saver
	OwnerID    string
	CategoryID string
	Timeout    time.Duration
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Syncer writes tree snapshots in the background. Enqueue never blocks on
// storage. At most one save per tree is in flight, and snapshots queued
// while a save runs collapse into the newest one, so writes land in order.
// A failed save is logged and remembered but the in-memory tree is kept.
type Syncer struct {
	saver      Saver
	ownerID    string
	categoryID string
	timeout    time.Duration
	log        *zap.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	next    *Snapshot
	busy    bool
	closed  bool
	lastErr error
	idle    chan struct{}
}

// NewSyncer creates a Syncer for one (owner, category) tree.
func NewSyncer(opts SyncerOpts) (*Syncer, error) {
	if opts.Saver == nil {
		return nil, errSaverRequired
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSaveTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Syncer{
		saver:      opts.Saver,
		ownerID:    opts.OwnerID,
		categoryID: opts.CategoryID,
		timeout:    opts.Timeout,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		idle:       idle,
	}, nil
}

// Enqueue schedules snap for saving and returns immediately.
func (s *Syncer) Enqueue(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("syncer closed, dropping snapshot",
			zap.String("owner", s.ownerID), zap.String("category", s.categoryID))
		return
	}
	s.next = &snap
	if s.busy {
		return
	}
	s.busy = true
	s.idle = make(chan struct{})
	go s.run(s.idle)
}

func (s *Syncer) run(idle chan struct{}) {
	for {
		s.mu.Lock()
		snap := s.next
		s.next = nil
		if snap == nil {
			s.busy = false
			close(idle)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		err := s.save(*snap)

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
	}
}

func (s *Syncer) save(snap Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := s.saver.Save(ctx, s.ownerID, s.categoryID, snap.Root, snap.Title)
	s.metrics.ObserveSave(time.Since(start), err)
	if err != nil {
		s.log.Warn("tree save failed",
			zap.String("owner", s.ownerID),
			zap.String("category", s.categoryID),
			zap.Error(err))
		return err
	}
	s.log.Debug("tree saved",
		zap.String("owner", s.ownerID),
		zap.String("category", s.categoryID),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Pending reports whether a save is queued or in flight.
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastError returns the error of the most recent save, or nil if it
// succeeded.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Flush waits until every queued snapshot has been written or ctx ends.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects later snapshots, then waits for the queued ones.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
