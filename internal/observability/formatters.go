// Package observability provides logger construction and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/rank-engine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// barWidth is the width of a factor contribution bar
	barWidth = 20
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// bar renders value out of limit as a fixed-width bar.
func bar(value, limit float64) string {
	filled := 0
	if limit > 0 {
		filled = int(value / limit * barWidth)
	}
	filled = min(max(filled, 0), barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// PrintRankScore outputs the overall score, standing and per-factor breakdown.
func (p *Printer) PrintRankScore(score *types.RankScore, weights *types.WeightSet) {
	if score == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", score.CandidateID))
	sb.WriteString(fmt.Sprintf("Overall:   %.1f / 100  (%s)\n", score.Overall, score.Tier))
	if score.IsClassified() {
		sb.WriteString(fmt.Sprintf("Rank:      #%d of %d  (top %.1f%%)\n",
			score.RankPosition, score.PoolSize, 100-score.Percentile))
	} else {
		sb.WriteString("Rank:      not classified yet\n")
	}
	sb.WriteString(fmt.Sprintf("Weights:   v%d\n", score.WeightSetVersion))
	sb.WriteString("\n")

	for _, factor := range types.Factors {
		contribution := score.Breakdown.Get(factor)
		weight := 0.0
		if weights != nil {
			weight = weights.Get(factor)
		}
		sb.WriteString(fmt.Sprintf("%-20s %s %5.2f\n", factor, bar(contribution, weight), contribution))
	}

	if score.Notes != "" {
		sb.WriteString("\n")
		sb.WriteString(score.Notes)
	}

	p.printBox("RANK SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWeightSet outputs a weight set version.
func (p *Printer) PrintWeightSet(w *types.WeightSet) {
	if w == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Version:   %d\n", w.Version))
	sb.WriteString(fmt.Sprintf("Effective: %s\n", w.EffectiveAt.Format("2006-01-02 15:04:05 MST")))
	if w.CreatedBy != "" {
		sb.WriteString(fmt.Sprintf("By:        %s\n", w.CreatedBy))
	}
	if w.Note != "" {
		sb.WriteString(fmt.Sprintf("Note:      %s\n", w.Note))
	}
	sb.WriteString("\n")
	for _, factor := range types.Factors {
		sb.WriteString(fmt.Sprintf("%-20s %6.2f\n", factor, w.Get(factor)))
	}

	p.printBox(fmt.Sprintf("WEIGHT SET v%d", w.Version), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWeightHistory outputs recent weight set versions, newest first.
func (p *Printer) PrintWeightHistory(history []types.WeightSet) {
	if len(history) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %6s %6s %6s %6s %6s  %s\n", "ver", "skill", "exp", "edu", "cert", "prof", "by"))
	count := min(len(history), maxItemsToShow)
	for i := 0; i < count; i++ {
		w := history[i]
		sb.WriteString(fmt.Sprintf("v%-3d %6.1f %6.1f %6.1f %6.1f %6.1f  %s\n",
			w.Version, w.Skills, w.Experience, w.Education, w.Certifications, w.ProfileCompleteness, w.CreatedBy))
	}
	if len(history) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d older versions\n", len(history)-maxItemsToShow))
	}

	p.printBox("WEIGHT HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDecision outputs an eligibility decision.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDecision(d types.Decision) {
	status := "✅ ELIGIBLE"
	if !d.Allowed {
		status = "⛔ NOT ELIGIBLE"
	}
	if d.Stale {
		status += " (score pending recompute)"
	}
	p.printBox(status, d.Reason)
}
