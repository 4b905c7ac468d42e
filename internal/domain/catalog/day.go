package catalog

import (
	"time"

	"github.com/go-faster/errors"
)

const dayLayout = "2006-01-02"

// Day identifies one calendar day as an ISO date (YYYY-MM-DD). It is computed
// in the menu time zone once, so storage never compares timestamps across
// zone boundaries. Lexical order equals chronological order.
type Day string

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	return Day(t.In(loc).Format(dayLayout))
}

// ParseDay validates s as a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", errors.Wrapf(err, "parse day %q", s)
	}
	return Day(t.Format(dayLayout)), nil
}

// Date returns midnight UTC of the day, the representation used for DATE
// columns. An invalid day yields the zero time.
func (d Day) Date() time.Time {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool { return d < other }

func (d Day) String() string { return string(d) }

// DayFromDate converts a DATE column value back to a Day.
func DayFromDate(t time.Time) Day {
	return Day(t.Format(dayLayout))
}
