package cert

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// DisplayLayout is the default date layout on certificates (DD-MM-YYYY).
const DisplayLayout = "02-01-2006"

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts YYYY-MM-DD or DD-MM-YYYY.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", DisplayLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, certerrors.Validationf(certerrors.ErrDateInvalid, "invalid date %q", s)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }

// Format renders the date with a Go time layout.
func (d Date) Format(layout string) string {
	if layout == "" {
		layout = DisplayLayout
	}
	return d.Time().Format(layout)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// UnmarshalYAML accepts both the ISO and the display layout.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDate(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalYAML writes YYYY-MM-DD.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON accepts a quoted date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return certerrors.Validationf(certerrors.ErrDateInvalid, "date must be a string, got %s", data)
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON writes a quoted YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}
