package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	DateDisplayLayout = "2006/01/02"
)

// Date is a calendar day at local midnight. The zero value means "no date".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// DateOf drops the time of day of t as seen in the local zone.
func DateOf(t time.Time) Date {
	y, m, d := t.In(time.Local).Date()
	return NewDate(y, m, d)
}

// ParseDate reads YYYY-MM-DD, YYYY/MM/DD or a full RFC 3339 timestamp.
// An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}

	for _, layout := range []string{DateLayout, DateDisplayLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Date{t}, nil
		}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("could not parse date %q, expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display renders the date as YYYY/MM/DD, or "" when unset.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateDisplayLayout)
}

// Before reports whether d is set and falls on an earlier day than o.
func (d Date) Before(o Date) bool {
	if d.IsZero() {
		return false
	}
	return d.Time.Before(o.Time)
}

func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
