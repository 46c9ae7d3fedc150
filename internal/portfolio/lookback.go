package portfolio

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/calendar"
	"github.com/jkoestner/folioflex/internal/model"
)

// convertLookback converts a lookback expression to calendar days relative to
// today. Accepted forms are a date ("2023-01-31"), a plain number of days, or
// "ytd" for days since January 1st.
func convertLookback(lookback string, today time.Time) (int, error) {
	today = calendar.Midnight(today)
	if parsed, err := time.Parse("2006-01-02", lookback); err == nil {
		return int(today.Sub(calendar.Midnight(parsed)).Hours() / 24), nil
	}
	if days, err := strconv.Atoi(lookback); err == nil && days >= 0 {
		return days, nil
	}
	if lookback == "ytd" {
		jan1 := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return int(today.Sub(jan1).Hours() / 24), nil
	}
	return 0, fmt.Errorf("%w: lookback must be a date, number, or ytd and not %q",
		apperrors.ErrInvalidLookback, lookback)
}

// filterLookback trims the history to the lookback window. The window is
// measured in calendar days back from the latest history date, then snapped to
// the closest trading day at or before that point so the window always opens
// on a priced row.
//
// When adjustVars is set, the cumulative variables (return, unrealized,
// realized, cumulative dividend) are rebased per ticker by subtracting each
// ticker's earliest in-window value, so they read as change over the window
// rather than since inception.
func filterLookback(rows []model.HistoryRow, lookbackDays int, adjustVars bool) []model.HistoryRow {
	if len(rows) == 0 {
		return nil
	}
	endDate := rows[0].Date
	for _, row := range rows {
		if row.Date.After(endDate) {
			endDate = row.Date
		}
	}
	calStart := endDate.AddDate(0, 0, -lookbackDays)
	startDate := calendar.LatestTradingDayOnOrBefore(calStart)

	var window []model.HistoryRow
	for _, row := range rows {
		if !row.Date.Before(startDate) {
			window = append(window, row)
		}
	}

	if adjustVars {
		rebaseWindow(window)
	}
	return window
}

// rebaseWindow subtracts each ticker's earliest non-NaN value of the
// cumulative variables from every row of that ticker, then maps the remaining
// NaNs to zero.
func rebaseWindow(window []model.HistoryRow) {
	vars := []func(*model.HistoryRow) *float64{
		func(r *model.HistoryRow) *float64 { return &r.Return },
		func(r *model.HistoryRow) *float64 { return &r.Unrealized },
		func(r *model.HistoryRow) *float64 { return &r.Realized },
		func(r *model.HistoryRow) *float64 { return &r.CumulativeDividend },
	}

	for _, field := range vars {
		type base struct {
			date  time.Time
			value float64
			found bool
		}
		baselines := make(map[model.Ticker]*base)
		for i := range window {
			v := *field(&window[i])
			if math.IsNaN(v) {
				continue
			}
			b, ok := baselines[window[i].Ticker]
			if !ok {
				b = &base{}
				baselines[window[i].Ticker] = b
			}
			if !b.found || window[i].Date.Before(b.date) {
				b.date, b.value, b.found = window[i].Date, v, true
			}
		}
		for i := range window {
			v := field(&window[i])
			if b, ok := baselines[window[i].Ticker]; ok && b.found && !math.IsNaN(*v) {
				*v -= b.value
			}
			if math.IsNaN(*v) {
				*v = 0
			}
		}
	}
}
