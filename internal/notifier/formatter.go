package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
)

func statusIcon(status string) string {
	switch status {
	case string(model.RunDelivered):
		return "✅"
	case string(model.RunDegraded):
		return "⚠️"
	default:
		return "❌"
	}
}

// FormatRunResult formats a pipeline run for the operator chat.
func FormatRunResult(r model.RunResult) string {
	var b strings.Builder
	title := "Market snapshot"
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", statusIcon(string(r.Status)), title, r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
	b.WriteString(fmt.Sprintf("Sessions: TASE %s, NYSE %s\n", r.Sessions.Israel, r.Sessions.US))
	b.WriteString(fmt.Sprintf("Text: %d chars | took %s\n", r.TextChars, r.Duration.Round(time.Millisecond)))

	if len(r.Degraded) > 0 {
		b.WriteString(fmt.Sprintf("\n<b>No data (%d):</b>\n", len(r.Degraded)))
		for _, o := range r.Degraded {
			reason := "empty series"
			if o.Err != nil {
				reason = o.Err.Error()
			}
			b.WriteString(fmt.Sprintf("  %s (%s): %s\n", o.Key, html.EscapeString(o.Ticker), html.EscapeString(reason)))
		}
	}

	if r.Err != nil {
		b.WriteString(fmt.Sprintf("\nFailed at <b>%s</b>: %s\n", r.Stage, html.EscapeString(r.Err.Error())))
	}
	b.WriteString(fmt.Sprintf("\nrun %s", r.RunID))
	return b.String()
}

// FormatStatus summarises the most recent journal entries.
func FormatStatus(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "📭 No runs recorded yet"
	}
	var b strings.Builder
	b.WriteString("📋 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		line := fmt.Sprintf("%s %s %s", statusIcon(r.Status), r.StartedAt.Format("01-02 15:04"), r.Status)
		if r.Stage != "" {
			line += " @" + r.Stage
		}
		if len(r.Degraded) > 0 {
			keys := make([]string, 0, len(r.Degraded))
			for _, d := range r.Degraded {
				keys = append(keys, d.Key)
			}
			line += " [" + strings.Join(keys, ", ") + "]"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatHelp lists the operator commands.
func FormatHelp() string {
	return "<b>Commands</b>\n" +
		"/report - compose and deliver now\n" +
		"/preview - show the text without delivery\n" +
		"/status - recent runs\n" +
		"/help - this message"
}
