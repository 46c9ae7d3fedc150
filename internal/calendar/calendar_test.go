package calendar

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsTradingDay(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"regular weekday", day(2023, time.March, 15), true},
		{"saturday", day(2023, time.March, 18), false},
		{"sunday", day(2023, time.March, 19), false},
		{"new years day", day(2023, time.January, 2), false}, // observed Monday
		{"mlk day", day(2023, time.January, 16), false},
		{"good friday", day(2023, time.April, 7), false},
		{"memorial day", day(2023, time.May, 29), false},
		{"juneteenth", day(2023, time.June, 19), false},
		{"juneteenth before adoption", day(2021, time.June, 18), true},
		{"independence day", day(2023, time.July, 4), false},
		{"labor day", day(2023, time.September, 4), false},
		{"thanksgiving", day(2023, time.November, 23), false},
		{"christmas", day(2023, time.December, 25), false},
		{"christmas observed", day(2021, time.December, 24), false}, // Dec 25 fell on Saturday
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTradingDay(tt.date); got != tt.want {
				t.Errorf("IsTradingDay(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestTradingDays(t *testing.T) {
	// Week of 2023-01-16: Monday is MLK day.
	days := TradingDays(day(2023, time.January, 14), day(2023, time.January, 20))
	want := []time.Time{
		day(2023, time.January, 17),
		day(2023, time.January, 18),
		day(2023, time.January, 19),
		day(2023, time.January, 20),
	}
	if len(days) != len(want) {
		t.Fatalf("got %d trading days, want %d", len(days), len(want))
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Errorf("days[%d] = %s, want %s", i, days[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
}

func TestPreviousTradingDay(t *testing.T) {
	// Monday 2023-04-10 follows Good Friday weekend.
	got := PreviousTradingDay(day(2023, time.April, 10))
	if want := day(2023, time.April, 6); !got.Equal(want) {
		t.Errorf("PreviousTradingDay = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestLatestTradingDayOnOrBefore(t *testing.T) {
	// A trading day maps to itself.
	if got := LatestTradingDayOnOrBefore(day(2023, time.March, 15)); !got.Equal(day(2023, time.March, 15)) {
		t.Errorf("trading day should map to itself, got %s", got.Format("2006-01-02"))
	}
	// A Sunday snaps back to Friday.
	if got := LatestTradingDayOnOrBefore(day(2023, time.March, 19)); !got.Equal(day(2023, time.March, 17)) {
		t.Errorf("sunday should snap to friday, got %s", got.Format("2006-01-02"))
	}
}

func TestMidnight(t *testing.T) {
	in := time.Date(2023, time.March, 15, 14, 30, 45, 12345, time.FixedZone("EST", -5*3600))
	got := Midnight(in)
	want := day(2023, time.March, 15)
	if !got.Equal(want) {
		t.Errorf("Midnight = %v, want %v", got, want)
	}
}

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{2023, day(2023, time.April, 9)},
		{2024, day(2024, time.March, 31)},
		{2025, day(2025, time.April, 20)},
	}
	for _, tt := range tests {
		if got := easter(tt.year); !got.Equal(tt.want) {
			t.Errorf("easter(%d) = %s, want %s", tt.year, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}
