package util

import (
	"testing"
	"time"
)

func TestExchangeWallClockTokyo(t *testing.T) {
	// 2024-10-10 09:00 JST
	ts := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC).Unix()
	got := ExchangeWallClock(ts, ExchangeLocation("Asia/Tokyo", 9*3600))
	if got.Hour() != 9 || got.Day() != 10 {
		t.Fatalf("unexpected wall clock %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC label, got %v", got.Location())
	}
}

func TestExchangeWallClockNewYorkKeepsLocalDate(t *testing.T) {
	// 2024-10-10 09:30 EDT is 13:30 UTC
	ts := time.Date(2024, 10, 10, 13, 30, 0, 0, time.UTC).Unix()
	got := TruncateDay(ExchangeWallClock(ts, ExchangeLocation("America/New_York", -4*3600)))
	if FormatDate(got) != "2024-10-10" {
		t.Fatalf("unexpected date %s", FormatDate(got))
	}
}

func TestExchangeWallClockFollowsDaylightSaving(t *testing.T) {
	// gmtoffset reports the current (summer) offset; winter bars still open at 09:30 local
	loc := ExchangeLocation("America/New_York", -4*3600)
	cases := []struct {
		utc  time.Time
		want time.Time
	}{
		{time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC), time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)},
		{time.Date(2024, 7, 3, 13, 30, 0, 0, time.UTC), time.Date(2024, 7, 3, 9, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := ExchangeWallClock(tc.utc.Unix(), loc); !got.Equal(tc.want) {
			t.Fatalf("wall clock for %v: got %v want %v", tc.utc, got, tc.want)
		}
	}
}

func TestExchangeLocationFallsBackToOffset(t *testing.T) {
	ts := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC).Unix()
	for _, name := range []string{"", "Not/AZone"} {
		got := ExchangeWallClock(ts, ExchangeLocation(name, -4*3600))
		if got.Hour() != 10 || got.Minute() != 30 {
			t.Fatalf("zone %q: unexpected wall clock %v", name, got)
		}
	}
}

func TestYearsRange(t *testing.T) {
	if YearsRange(5) != "5y" || YearsRange(0) != "1y" {
		t.Fatalf("unexpected ranges %s %s", YearsRange(5), YearsRange(0))
	}
}
