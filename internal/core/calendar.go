package core

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date at midnight UTC. The zero value means "unset".
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day.
// Out of range values normalize the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses "2006-01-02". RFC 3339 timestamps are accepted and
// truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
}

// MustDate is ParseDate for literals in tests and fixtures.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Day returns the day of the month
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year
func (d Date) Year() int { return d.Time.Year() }

// IsEmpty returns true if the date is unset.
func (d Date) IsEmpty() bool { return d.IsZero() }

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// InMonth reports whether d falls in (year, month).
func (d Date) InMonth(year, month int) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan reads a TEXT date column. NULL scans to the zero Date.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as TEXT, or NULL when unset.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

// DaysInMonth returns the number of days of (year, month), leap-year aware.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ResolveDay returns the concrete date of desiredDay in (year, month),
// clamped to the month's last day. Days below 1 resolve to the 1st.
func ResolveDay(year, month, desiredDay int) Date {
	day := desiredDay
	if day < 1 {
		day = 1
	}
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// AddMonths shifts (year, month) by k months, k may be negative.
func AddMonths(year, month, k int) (int, int) {
	idx := year*12 + (month - 1) + k
	y, m := idx/12, idx%12
	if m < 0 {
		y--
		m += 12
	}
	return y, m + 1
}

// MonthStart returns the first day of (year, month).
func MonthStart(year, month int) Date { return NewDate(year, month, 1) }

// MonthEnd returns the last day of (year, month).
func MonthEnd(year, month int) Date { return NewDate(year, month, DaysInMonth(year, month)) }

// MonthName returns the English month name.
func MonthName(month int) string { return time.Month(month).String() }

// ValidateMonth checks a (year, month) selection.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return Invalid("year", ErrInvalidMonth)
	}
	return nil
}

// ValidateDayOfMonth checks a day-of-month trigger in 1..31.
func ValidateDayOfMonth(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}
