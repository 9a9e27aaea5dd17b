package report

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/reflectai/reflectai/internal/category"
	"github.com/reflectai/reflectai/internal/mindmap"
	"github.com/reflectai/reflectai/internal/models"
	"github.com/reflectai/reflectai/internal/treestore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) (*gorm.DB, *treestore.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Category{}, &models.MindMap{}, &models.Report{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	store, err := treestore.New(db, nil)
	if err != nil {
		t.Fatal(err)
	}
	return db, store
}

func planTree() *mindmap.Node {
	return &mindmap.Node{
		ID: "r", Label: "Me", Kind: mindmap.KindRoot,
		Children: []*mindmap.Node{
			{ID: "a", Label: "Learn Go", Kind: mindmap.KindPrimary, Status: mindmap.StatusActive, Progress: 60,
				Children: []*mindmap.Node{
					{ID: "a1", Label: "Tour", Kind: mindmap.KindLeaf, Status: mindmap.StatusCompleted},
					{ID: "a2", Label: "Book", Kind: mindmap.KindLeaf},
				}},
			{ID: "b", Label: "Marathon", Kind: mindmap.KindPrimaryTarget, Status: mindmap.StatusAbandoned},
		},
	}
}

func seed(t *testing.T, db *gorm.DB, store *treestore.Store) {
	t.Helper()
	cat, err := category.Create(db, "alice", "Career")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, "alice", cat.ID, planTree(), "Plan"); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "alice", treestore.Uncategorized, mindmap.DefaultTree(), "Old"); err != nil {
		t.Fatal(err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(planTree())
	want := StatusCounts{Pending: 1, Active: 1, Completed: 1, Abandoned: 1}
	if s.Counts != want {
		t.Errorf("counts = %+v, want %+v", s.Counts, want)
	}
	if !reflect.DeepEqual(s.CurrentPath, []string{"Me", "Learn Go"}) {
		t.Errorf("path = %v", s.CurrentPath)
	}
	if s.Progress != 60 {
		t.Errorf("progress = %d", s.Progress)
	}
	if !reflect.DeepEqual(s.Completed, []string{"Tour"}) {
		t.Errorf("completed = %v", s.Completed)
	}
}

func TestSummarize_NoActive(t *testing.T) {
	s := Summarize(mindmap.DefaultTree())
	if s.CurrentPath != nil || s.Progress != 0 {
		t.Errorf("summary = %+v", s)
	}
	if s.Counts.Pending != 2 {
		t.Errorf("pending = %d, want 2", s.Counts.Pending)
	}
}

func TestBuild(t *testing.T) {
	db, store := openTestDB(t)
	seed(t, db, store)

	snap, err := Build(context.Background(), db, store, "alice", fixedNow)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Trees) != 2 {
		t.Fatalf("trees = %d, want 2", len(snap.Trees))
	}
	if snap.Trees[0].CategoryName != "Career" || snap.Trees[1].CategoryName != UncategorizedName {
		t.Errorf("categories = %q, %q", snap.Trees[0].CategoryName, snap.Trees[1].CategoryName)
	}
	if !snap.PeriodEnd.Equal(fixedNow) || !snap.PeriodStart.Equal(fixedNow.Add(-Period)) {
		t.Errorf("period = %v..%v", snap.PeriodStart, snap.PeriodEnd)
	}
	if tot := snap.Totals(); tot.Completed != 1 || tot.Pending != 3 {
		t.Errorf("totals = %+v", tot)
	}
}

func TestFormat(t *testing.T) {
	snap := &Snapshot{
		PeriodStart: fixedNow.Add(-Period),
		PeriodEnd:   fixedNow,
		Trees: []TreeSummary{{
			CategoryName: "Career", Title: "Plan",
			Counts:      StatusCounts{Active: 1, Completed: 2},
			CurrentPath: []string{"Me", "Learn Go"}, Progress: 60,
			Completed: []string{"Tour", "Book"},
		}},
	}
	out := Format(snap, &Analysis{Summary: "Solid week.", Suggestions: []string{"Rest more"}})

	for _, want := range []string{
		"# Weekly report: Mar 2 to Mar 9, 2026\n",
		"Solid week.",
		"**Totals:** 2 completed, 1 active, 0 pending, 0 abandoned",
		"## Career: Plan",
		"- Current: Me › Learn Go (60%)",
		"- Nodes: 2 completed / 3 total",
		"- Done: Tour, Book",
		"## Suggestions\n- Rest more\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "## Highlights") {
		t.Error("empty highlights section rendered")
	}

	plain := Format(&Snapshot{PeriodStart: fixedNow, PeriodEnd: fixedNow}, nil)
	if !strings.Contains(plain, "_No mind maps yet._") {
		t.Errorf("empty report = %q", plain)
	}
}

type fakeAI struct {
	reply Analysis
	err   error
	calls int
}

func (f *fakeAI) CompleteJSON(ctx context.Context, system, prompt string, v any) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	*(v.(*Analysis)) = f.reply
	return nil
}

func (f *fakeAI) Provider() string { return "fake" }

func TestGenerate(t *testing.T) {
	tests := []struct {
		name         string
		ai           *fakeAI
		wantProvider string
		wantSummary  bool
	}{
		{"no ai", nil, "none", false},
		{"ai ok", &fakeAI{reply: Analysis{Summary: "Great focus this week."}}, "fake", true},
		{"ai fails", &fakeAI{err: errors.New("timeout")}, "none", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, store := openTestDB(t)
			seed(t, db, store)

			opts := GeneratorOpts{DB: db, Store: store, Now: func() time.Time { return fixedNow }}
			if tt.ai != nil {
				opts.AI = tt.ai
			}
			g, err := NewGenerator(opts)
			if err != nil {
				t.Fatal(err)
			}
			rep, err := g.Generate(context.Background(), "alice")
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if rep.ID == 0 || rep.Provider != tt.wantProvider {
				t.Errorf("report = id %d provider %q", rep.ID, rep.Provider)
			}
			if got := strings.Contains(rep.Body, "Great focus"); got != tt.wantSummary {
				t.Errorf("summary present = %v, want %v", got, tt.wantSummary)
			}

			stored, err := List(db, "alice", 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(stored) != 1 || stored[0].Body != rep.Body {
				t.Errorf("stored = %+v", stored)
			}
		})
	}
}

func TestGenerate_SkipsAIWithoutTrees(t *testing.T) {
	db, store := openTestDB(t)
	ai := &fakeAI{}
	g, _ := NewGenerator(GeneratorOpts{DB: db, Store: store, AI: ai})
	if _, err := g.Generate(context.Background(), "bob"); err != nil {
		t.Fatal(err)
	}
	if ai.calls != 0 {
		t.Errorf("ai calls = %d, want 0", ai.calls)
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	if _, err := NewGenerator(GeneratorOpts{}); err == nil {
		t.Error("expected error for missing db")
	}
	db, _ := openTestDB(t)
	if _, err := NewGenerator(GeneratorOpts{DB: db}); err == nil {
		t.Error("expected error for missing store")
	}
}

func TestList_Limit(t *testing.T) {
	db, store := openTestDB(t)
	g, _ := NewGenerator(GeneratorOpts{DB: db, Store: store})
	for i := 0; i < 3; i++ {
		if _, err := g.Generate(context.Background(), "alice"); err != nil {
			t.Fatal(err)
		}
	}
	reps, err := List(db, "alice", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(reps) != 2 || reps[0].ID < reps[1].ID {
		t.Errorf("reports = %+v", reps)
	}
}
