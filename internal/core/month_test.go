package core

import (
	"testing"
	"time"
)

func TestMonthWindow(t *testing.T) {
	cases := []struct {
		selector string
		start    string
		end      string
	}{
		{"2024-02", "2024-02-01", "2024-02-29"}, // leap year
		{"2023-02", "2023-02-01", "2023-02-28"},
		{"2024-01", "2024-01-01", "2024-01-31"},
		{"2024-04", "2024-04-01", "2024-04-30"},
		{"2024-12", "2024-12-01", "2024-12-31"},
		{"2000-02", "2000-02-01", "2000-02-29"}, // century leap year
		{"1900-02", "1900-02-01", "1900-02-28"}, // century non-leap year
	}
	for _, tc := range cases {
		m, err := ParseMonth(tc.selector)
		if err != nil {
			t.Fatalf("ParseMonth(%q): %v", tc.selector, err)
		}
		start, end := m.Window()
		if start.String() != tc.start {
			t.Errorf("%s: start = %s, want %s", tc.selector, start, tc.start)
		}
		if end.String() != tc.end {
			t.Errorf("%s: end = %s, want %s", tc.selector, end, tc.end)
		}
	}
}

func TestParseMonthRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2024", "2024-13", "2024-00", "24-02", "2024/02", "2024-2"} {
		if _, err := ParseMonth(s); err == nil {
			t.Errorf("ParseMonth(%q) expected error", s)
		}
	}
}

func TestMonthContains(t *testing.T) {
	m := Month{Year: 2024, Month: time.February}
	if !m.Contains(NewDate(2024, time.February, 1)) {
		t.Error("first day should be inside the window")
	}
	if !m.Contains(NewDate(2024, time.February, 29)) {
		t.Error("leap day should be inside the window")
	}
	if m.Contains(NewDate(2024, time.March, 1)) {
		t.Error("next month should be outside the window")
	}
	if m.Contains(NewDate(2024, time.January, 31)) {
		t.Error("previous month should be outside the window")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Time.Month() != time.February || d.Day() != 29 {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Error("expected error for non-leap Feb 29")
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestMonthString(t *testing.T) {
	m := Month{Year: 2024, Month: time.March}
	if got := m.String(); got != "2024-03" {
		t.Fatalf("String() = %q, want 2024-03", got)
	}
}
