package s0_feed

import "time"

// NSE trading holidays. Some dates are tentative until the exchange circular.
var nseHolidays = []string{
	"2026-01-26", // Republic Day
	"2026-02-17", // Mahashivratri
	"2026-03-14", // Holi
	"2026-03-31", // Id-ul-Fitr
	"2026-04-02", // Ram Navami
	"2026-04-06", // Mahavir Jayanti
	"2026-04-10", // Good Friday
	"2026-04-14", // Dr. Ambedkar Jayanti
	"2026-05-01", // Maharashtra Day
	"2026-06-07", // Bakrid
	"2026-07-06", // Muharram
	"2026-08-15", // Independence Day
	"2026-08-16", // Janmashtami
	"2026-09-05", // Milad-un-Nabi
	"2026-10-02", // Mahatma Gandhi Jayanti
	"2026-10-20", // Dussehra
	"2026-10-21", // Dussehra
	"2026-11-05", // Diwali
	"2026-11-06", // Diwali Balipratipada
	"2026-11-07", // Bhai Dooj
	"2026-11-19", // Guru Nanak Jayanti
	"2026-12-25", // Christmas
}

// Calendar knows which days the exchange is closed.
// It is only a hint for skipping requests; the feed stays the source of truth.
type Calendar struct {
	loc      *time.Location
	holidays map[string]bool
}

// NewCalendar builds a calendar in loc with the built-in holiday list plus extra (YYYY-MM-DD)
func NewCalendar(loc *time.Location, extra ...string) *Calendar {
	c := &Calendar{
		loc:      loc,
		holidays: make(map[string]bool, len(nseHolidays)+len(extra)),
	}
	for _, d := range nseHolidays {
		c.holidays[d] = true
	}
	for _, d := range extra {
		c.holidays[d] = true
	}
	return c
}

// IsClosed reports whether t falls on a weekend or a listed holiday
func (c *Calendar) IsClosed(t time.Time) bool {
	local := t.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return c.holidays[local.Format("2006-01-02")]
}

// IsHoliday reports whether t is a listed exchange holiday
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[t.In(c.loc).Format("2006-01-02")]
}
