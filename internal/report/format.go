package report

import (
	"fmt"
	"strings"
)

// Analysis is the AI-written part of a report.
type Analysis struct {
	Summary     string   `json:"summary"`
	Highlights  []string `json:"highlights"`
	Suggestions []string `json:"suggestions"`
}

// Format renders a report as markdown. a may be nil.
func Format(s *Snapshot, a *Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly report: %s to %s\n\n",
		s.PeriodStart.Format("Jan 2"), s.PeriodEnd.Format("Jan 2, 2006"))

	if a != nil && a.Summary != "" {
		b.WriteString(a.Summary)
		b.WriteString("\n\n")
	}

	t := s.Totals()
	fmt.Fprintf(&b, "**Totals:** %d completed, %d active, %d pending, %d abandoned\n\n",
		t.Completed, t.Active, t.Pending, t.Abandoned)

	if len(s.Trees) == 0 {
		b.WriteString("_No mind maps yet._\n")
	}
	for _, tr := range s.Trees {
		fmt.Fprintf(&b, "## %s: %s\n", tr.CategoryName, tr.Title)
		if len(tr.CurrentPath) > 0 {
			fmt.Fprintf(&b, "- Current: %s (%d%%)\n", strings.Join(tr.CurrentPath, " › "), tr.Progress)
		} else {
			b.WriteString("- Current: nothing in progress\n")
		}
		fmt.Fprintf(&b, "- Nodes: %d completed / %d total\n", tr.Counts.Completed, tr.Counts.Total())
		if len(tr.Completed) > 0 {
			fmt.Fprintf(&b, "- Done: %s\n", strings.Join(tr.Completed, ", "))
		}
		b.WriteString("\n")
	}

	if a != nil {
		writeList(&b, "Highlights", a.Highlights)
		writeList(&b, "Suggestions", a.Suggestions)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
