package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reflectai/reflectai/internal/metrics"
	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/treestore"
)

const systemPrompt = `You are a supportive reflection coach. You receive a JSON snapshot of a
person's goal trees: per tree, node counts by status, the path to the node
currently in progress and its progress percentage, and completed items.
Reply with a single JSON object and nothing else:
{"summary": "<3-5 sentences>", "highlights": ["..."], "suggestions": ["..."]}`

// Completer is the AI surface a report needs. llm.Client satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, system, prompt string, v any) error
	Provider() string
}

// GeneratorOpts configures a Generator.
type GeneratorOpts struct {
	DB      *gorm.DB
	Store   *treestore.Store
	AI      Completer // optional
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Generator produces and stores reports.
type Generator struct {
	db      *gorm.DB
	store   *treestore.Store
	ai      Completer
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(opts GeneratorOpts) (*Generator, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("report: db is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("report: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{
		db:      opts.DB,
		store:   opts.Store,
		ai:      opts.AI,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}, nil
}

// Generate builds, formats and persists a report for the owner. When the AI
// call fails the report falls back to the plain snapshot.
func (g *Generator) Generate(ctx context.Context, ownerID string) (rep *models.Report, err error) {
	defer func() { g.metrics.CountReport(err) }()

	snap, err := Build(ctx, g.db, g.store, ownerID, g.now())
	if err != nil {
		return nil, err
	}

	provider := "none"
	analysis := g.analyze(ctx, snap)
	if analysis != nil {
		provider = g.ai.Provider()
	}

	rep = &models.Report{
		OwnerID:     ownerID,
		PeriodStart: snap.PeriodStart,
		PeriodEnd:   snap.PeriodEnd,
		Body:        Format(snap, analysis),
		Provider:    provider,
	}
	if err := g.db.WithContext(ctx).Create(rep).Error; err != nil {
		return nil, fmt.Errorf("report: save: %w", err)
	}
	g.log.Info("report generated",
		zap.String("owner", ownerID),
		zap.Uint("id", rep.ID),
		zap.String("provider", provider))
	return rep, nil
}

func (g *Generator) analyze(ctx context.Context, snap *Snapshot) *Analysis {
	if g.ai == nil || len(snap.Trees) == 0 {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	var a Analysis
	if err := g.ai.CompleteJSON(ctx, systemPrompt, string(payload), &a); err != nil {
		g.log.Warn("ai summary failed, using plain report",
			zap.String("owner", snap.OwnerID),
			zap.String("provider", g.ai.Provider()),
			zap.Error(err))
		return nil
	}
	return &a
}
