package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset  = "\033[0m"
	colorDim    = "\033[2m"
	colorBranch = "\033[38;2;165;120;80m"
	colorPath   = "\033[38;2;120;200;255m"
	colorActive = "\033[1;38;2;255;215;0m"
	colorDone   = "\033[38;2;0;180;0m"
	colorDrop   = "\033[9;38;2;150;150;150m"
)

// OutlineOpts controls the text outline.
type OutlineOpts struct {
	Color        bool // emit ANSI colour codes
	Descriptions bool // print node descriptions under their labels
	ShowIDs      bool // append node IDs
	BarWidth     int  // progress bar width, default 20
}

// DetectColor reports whether f is a terminal that should receive colour.
func DetectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or fallback when f is not a terminal.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Outline writes v as an indented tree.
func Outline(w io.Writer, v View, opts OutlineOpts) error {
	if opts.BarWidth <= 0 {
		opts.BarWidth = 20
	}
	var b strings.Builder
	writeLine(&b, v, "", opts)
	writeChildren(&b, v, "", opts)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChildren(b *strings.Builder, v View, prefix string, opts OutlineOpts) {
	for i, c := range v.Children {
		last := i == len(v.Children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		b.WriteString(paint(opts, colorBranch, prefix+branch))
		writeLine(b, c, prefix+next, opts)
		writeChildren(b, c, prefix+next, opts)
	}
}

func writeLine(b *strings.Builder, v View, descPrefix string, opts OutlineOpts) {
	marker := "  "
	switch {
	case v.Current:
		marker = "▶ "
	case v.OnPath:
		marker = "· "
	}
	b.WriteString(marker)

	label := v.Label
	if label == "" {
		label = "(untitled)"
	}
	b.WriteString(paint(opts, labelColor(v), label))
	if v.Icon != "" {
		b.WriteString(paint(opts, colorDim, " ["+v.Icon+"]"))
	}
	if v.Status != "pending" {
		b.WriteString(paint(opts, colorDim, " ("+v.Status+")"))
	}
	if v.ShowProgress() {
		b.WriteString(" " + ProgressBar(v.Progress, opts.BarWidth))
	}
	if opts.ShowIDs {
		b.WriteString(paint(opts, colorDim, " #"+v.ID))
	}
	b.WriteByte('\n')

	if opts.Descriptions && v.Description != "" {
		for _, line := range strings.Split(v.Description, "\n") {
			b.WriteString(paint(opts, colorDim, descPrefix+"    "+line))
			b.WriteByte('\n')
		}
	}
}

func labelColor(v View) string {
	switch {
	case v.Current:
		return colorActive
	case v.OnPath:
		return colorPath
	case v.Status == "completed":
		return colorDone
	case v.Status == "abandoned":
		return colorDrop
	}
	return ""
}

func paint(opts OutlineOpts, color, s string) string {
	if !opts.Color || color == "" {
		return s
	}
	return color + s + colorReset
}

// ProgressBar renders p (clamped to 0..100) as a fixed-width bar with a
// percentage, e.g. "[████░░░░░░] 40%".
func ProgressBar(p, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if width <= 0 {
		width = 20
	}
	filled := p * width / 100
	return fmt.Sprintf("[%s%s] %d%%",
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), p)
}
