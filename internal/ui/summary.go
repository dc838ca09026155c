package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/store"
)

// PrintBatchSummary renders the counters of a run followed by its
// publishable verdicts.
func PrintBatchSummary(w io.Writer, batch models.BatchResult, t *i18n.Translations) {
	PrintSectionBanner(w, t.GetMessage("summary.title", 0, nil))

	PrintKeyValue(w, t.GetMessage("summary.run_id", 0, nil), batch.RunID)
	PrintKeyValue(w, t.GetMessage("summary.scanned", 0, nil), fmt.Sprint(batch.Scanned))
	PrintKeyValue(w, t.GetMessage("summary.approved", 0, nil), Success.Sprint(batch.Approved))
	PrintKeyValue(w, t.GetMessage("summary.review", 0, nil), Warning.Sprint(batch.Review))
	PrintKeyValue(w, t.GetMessage("summary.rejected", 0, nil), fmt.Sprint(batch.Rejected))
	PrintKeyValue(w, t.GetMessage("summary.failed", 0, nil), fmt.Sprint(batch.Failed))
	if !batch.StartedAt.IsZero() && !batch.FinishedAt.IsZero() {
		PrintKeyValue(w, t.GetMessage("summary.duration", 0, nil),
			batch.FinishedAt.Sub(batch.StartedAt).Round(10*time.Millisecond).String())
	}

	printSection(w, t.GetMessage("summary.approvals", 0, nil), batch.Approvals, t)
	printSection(w, t.GetMessage("summary.reviews", 0, nil), batch.Reviews, t)
}

func printSection(w io.Writer, title string, results []models.AnalysisResult, t *i18n.Translations) {
	if len(results) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s %s\n", StatsEmoji, Accent.Sprint(title))
	for _, r := range results {
		PrintVerdict(w, r, t)
	}
}

// PrintVerdict renders one verdict with its scores, flags and AI review.
func PrintVerdict(w io.Writer, r models.AnalysisResult, t *i18n.Translations) {
	_, _ = fmt.Fprintf(w, "\n   %s %s %s\n",
		recommendationColor(r.Recommendation).Sprintf("[%s]", r.Recommendation),
		color.New(color.Bold).Sprint(r.Repo),
		Dim.Sprintf("(%s)", r.Priority))

	line := fmt.Sprintf("%.2f", r.TotalScore)
	if r.AIReview != nil {
		line += Dim.Sprintf(" (heuristic %.2f)", r.HeuristicScore)
	}
	PrintKeyValue(w, t.GetMessage("summary.score", 0, nil), line)

	if r.Production != nil {
		PrintKeyValue(w, t.GetMessage("summary.production", 0, nil),
			fmt.Sprintf("%s (%.2f)", r.Production.Classification, r.Production.Score)+
				Dim.Sprintf(" activity %d", r.Production.ActivityScore))
	}
	if len(r.RedFlags) > 0 {
		PrintKeyValue(w, t.GetMessage("summary.red_flags", 0, nil), strings.Join(r.RedFlags, "; "))
	}
	if r.AIReview != nil {
		a := r.AIReview
		PrintKeyValue(w, t.GetMessage("summary.ai_review", 0, nil),
			fmt.Sprintf("A%d D%d T%d P%d I%d", a.Architecture, a.Documentation, a.Testing, a.Practices, a.Innovation))
		if len(a.KeyStrengths) > 0 {
			PrintKeyValue(w, t.GetMessage("summary.strengths", 0, nil), strings.Join(a.KeyStrengths, "; "))
		}
		if len(a.Improvements) > 0 {
			PrintKeyValue(w, t.GetMessage("summary.improvements", 0, nil), strings.Join(a.Improvements, "; "))
		}
	}
}

// PrintHistory renders stored verdicts, newest first, one per line.
func PrintHistory(w io.Writer, records []store.Record, t *i18n.Translations) {
	if len(records) == 0 {
		PrintInfo(w, t.GetMessage("history.empty", 0, nil))
		return
	}
	for _, rec := range records {
		r := rec.Result
		status := ""
		if !rec.Current() {
			status = Dim.Sprintf(" [%s]", t.GetMessage("history.superseded", 0, nil))
		}
		sha := r.CommitSHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		_, _ = fmt.Fprintf(w, "%s  %-40s %s %6.2f %s%s\n",
			Dim.Sprint(r.AnalyzedAt.Format(time.DateTime)),
			r.Repo,
			recommendationColor(r.Recommendation).Sprintf("%-7s", r.Recommendation),
			r.TotalScore,
			Dim.Sprint(sha),
			status)
	}
}

func recommendationColor(rec models.Recommendation) *color.Color {
	switch rec {
	case models.RecommendApprove:
		return Success
	case models.RecommendReview:
		return Warning
	default:
		return Error
	}
}
