package analytics

import "time"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const dateLayout = "2006-01-02"

// Range is an inclusive day range.
type Range struct {
	Start time.Time
	End   time.Time
}

// Filters renders r as the startDate/endDate report filters.
func (r Range) Filters() map[string]any {
	return map[string]any{
		"startDate": r.Start.Format(dateLayout),
		"endDate":   r.End.Format(dateLayout),
	}
}

// Presets are the common ranges offered by the reports screen, keyed by name.
func Presets() map[string]Range {
	now := NowTimeFunc()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	days := func(n int) time.Time { return today.AddDate(0, 0, -n) }

	return map[string]Range{
		"today":      {Start: today, End: today},
		"last7Days":  {Start: days(7), End: today},
		"last30Days": {Start: days(30), End: today},
		"last90Days": {Start: days(90), End: today},
		"thisMonth":  {Start: startOfMonth, End: today},
		"lastMonth":  {Start: startOfMonth.AddDate(0, -1, 0), End: startOfMonth.AddDate(0, 0, -1)},
		"thisYear":   {Start: time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()), End: today},
	}
}
