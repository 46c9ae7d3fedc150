// Package calendar provides the market-calendar collaborator used for
// transaction date validation and lookback-window snapping. It models the
// NYSE schedule: weekdays excluding US market holidays.
package calendar

import "time"

// IsTradingDay reports whether d falls on a valid market trading day.
func IsTradingDay(d time.Time) bool {
	d = Midnight(d)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(d)
}

// TradingDays returns the ordered trading days in [start, end].
func TradingDays(start, end time.Time) []time.Time {
	start, end = Midnight(start), Midnight(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// PreviousTradingDay returns the latest trading day strictly before d.
func PreviousTradingDay(d time.Time) time.Time {
	d = Midnight(d).AddDate(0, 0, -1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// LatestTradingDayOnOrBefore returns d itself when it is a trading day,
// otherwise the previous trading day. Used for snapping calendar-day lookback
// boundaries onto the market schedule.
func LatestTradingDayOnOrBefore(d time.Time) time.Time {
	d = Midnight(d)
	if IsTradingDay(d) {
		return d
	}
	return PreviousTradingDay(d)
}

// Midnight truncates a timestamp to UTC midnight. All engine dates are
// calendar days; normalizing here keeps map keys and comparisons exact.
func Midnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// isHoliday reports whether d is a US market holiday, with weekend
// observation shifts (Saturday observed Friday, Sunday observed Monday).
func isHoliday(d time.Time) bool {
	y := d.Year()
	holidays := []time.Time{
		observed(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)),
		nthWeekday(y, time.January, time.Monday, 3),   // Martin Luther King Jr. Day
		nthWeekday(y, time.February, time.Monday, 3),  // Washington's Birthday
		easter(y).AddDate(0, 0, -2),                   // Good Friday
		lastWeekday(y, time.May, time.Monday),         // Memorial Day
		nthWeekday(y, time.September, time.Monday, 1), // Labor Day
		nthWeekday(y, time.November, time.Thursday, 4), // Thanksgiving
		observed(time.Date(y, time.July, 4, 0, 0, 0, 0, time.UTC)),
		observed(time.Date(y, time.December, 25, 0, 0, 0, 0, time.UTC)),
	}
	if y >= 2022 {
		holidays = append(holidays, observed(time.Date(y, time.June, 19, 0, 0, 0, 0, time.UTC)))
	}
	for _, h := range holidays {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easter computes the Gregorian Easter Sunday for a year
// (anonymous Gregorian computus).
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
