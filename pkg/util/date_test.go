package util

import (
	"reflect"
	"strconv"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-06-07",
		"2024-06-07T15:30:00Z",
		"2024-06-07 00:00:00-04:00",
		" 2024-06-07 ",
	} {
		got, err := ParseDate(s)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", s, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseDate("yesterday"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
	if _, err := ParseDate(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseDateUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 13, 30, 0, 0, time.UTC).Unix()
	got, err := ParseDate(strconv.FormatInt(ts, 10))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 6, 7, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 3 {
		t.Fatalf("expected 3 days, got %d", d)
	}
	if d := DaysBetween(b, a); d != -3 {
		t.Fatalf("expected -3 days, got %d", d)
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{" aapl", "MSFT", "", "AAPL", "brk-b"})
	want := []string{"AAPL", "MSFT", "BRK-B"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSplitListAndParseInt(t *testing.T) {
	if got := SplitList(" a, ,b ,"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected split %v", got)
	}
	if ParseIntDefault("", 14) != 14 || ParseIntDefault("x", 14) != 14 || ParseIntDefault("7", 14) != 7 {
		t.Fatalf("ParseIntDefault mismatch")
	}
}
