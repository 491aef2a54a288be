package core

import (
	"fmt"
	"time"
)

type (
	// Date is a calendar date without a time-of-day component.
	Date struct {
		time.Time
	}

	// Month selects one calendar month, e.g. "2024-02".
	Month struct {
		Year  int
		Month time.Month
	}
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// ParseMonth parses a "YYYY-MM" selector.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month selector %q", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// CurrentMonth returns the month containing now, in UTC.
func CurrentMonth() Month {
	now := time.Now().UTC()
	return Month{Year: now.Year(), Month: now.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Window returns the inclusive [first day, last day] range of the month.
// The end is computed by calendar arithmetic (day zero of the next month),
// so variable month lengths and leap years come out right.
func (m Month) Window() (start, end Date) {
	start = NewDate(m.Year, m.Month, 1)
	end = Date{Time: time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)}
	return start, end
}

// Contains reports whether d falls inside the month window.
func (m Month) Contains(d Date) bool {
	start, end := m.Window()
	return !d.Before(start) && !end.Before(d)
}
