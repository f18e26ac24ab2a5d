package engine

import (
	"time"

	"github.com/arnold/habits-api/internal/schedule"
)

type DayStatus string

const (
	StatusCompleted DayStatus = "completed"
	StatusMissed    DayStatus = "missed"
	StatusNotLogged DayStatus = "not_logged"
)

// HistoryEntry is one cell of a habit's heatmap.
type HistoryEntry struct {
	Date   string    `json:"date"`
	Status DayStatus `json:"status"`
	Due    bool      `json:"due"`
}

// BuildHistory produces one entry per date in [from, to] inclusive. A date
// is completed when the ledger has a completion, missed only when it was
// due, uncompleted and strictly before today — today and future dates are
// never missed, the day is not over yet — and not_logged otherwise.
func BuildHistory(sched schedule.Schedule, start time.Time, completed map[string]bool, from, to, today time.Time) []HistoryEntry {
	var entries []HistoryEntry
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dateStr := schedule.FormatDate(d)
		due := sched.IsDue(start, d)

		status := StatusNotLogged
		switch {
		case completed[dateStr]:
			status = StatusCompleted
		case due && d.Before(today):
			status = StatusMissed
		}

		entries = append(entries, HistoryEntry{Date: dateStr, Status: status, Due: due})
	}
	return entries
}
