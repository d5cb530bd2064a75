package billing

import (
	"fmt"
	"time"
)

// dateLayout is the upstream start_date/end_date format.
const dateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	year  int
	month time.Month
	day   int
}

// DateOf truncates an instant to its UTC calendar day, independent of the local time zone.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Prev returns the calendar day before d.
func (d Date) Prev() Date {
	return DateOf(d.Start().AddDate(0, 0, -1))
}

// Start returns midnight UTC of d.
func (d Date) Start() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return d.Start().Format(dateLayout)
}
