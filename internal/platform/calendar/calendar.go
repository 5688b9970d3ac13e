// Package calendar provides a weekday-and-holiday trading calendar that
// answers market-open queries for the indicator engine.
package calendar

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"indicator_backend/internal/feature/indicators/domain/entity"
	"indicator_backend/internal/feature/indicators/usecase"
)

// Session is the regular trading session in the calendar's time zone,
// expressed as minutes after midnight. Close is exclusive.
type Session struct {
	Open  int
	Close int
}

// DefaultSession is 09:30 to 16:00.
var DefaultSession = Session{Open: 9*60 + 30, Close: 16 * 60}

// Holiday is a full-day market closure.
type Holiday struct {
	Date string `yaml:"date"` // YYYY-MM-DD
	Name string `yaml:"name"`
}

// File is the on-disk YAML layout of a calendar.
type File struct {
	Timezone string `yaml:"timezone"`
	Session  struct {
		Open  string `yaml:"open"`  // HH:MM
		Close string `yaml:"close"` // HH:MM
	} `yaml:"session"`
	Holidays []Holiday `yaml:"holidays"`
}

// Calendar treats Saturdays, Sundays and listed holidays as closed.
// It is immutable after construction and safe for concurrent use.
type Calendar struct {
	loc      *time.Location
	session  Session
	holidays map[string]string
}

var _ usecase.MarketCalendar = (*Calendar)(nil)

// New builds a calendar. A nil loc means UTC.
func New(loc *time.Location, session Session, holidays []Holiday) (*Calendar, error) {
	if loc == nil {
		loc = time.UTC
	}
	if session.Open < 0 || session.Close > 24*60 || session.Open >= session.Close {
		return nil, fmt.Errorf("calendar: invalid session %d-%d", session.Open, session.Close)
	}
	set := make(map[string]string, len(holidays))
	for _, h := range holidays {
		if _, err := time.Parse(time.DateOnly, h.Date); err != nil {
			return nil, fmt.Errorf("calendar: holiday %q: %w", h.Date, err)
		}
		set[h.Date] = h.Name
	}
	return &Calendar{loc: loc, session: session, holidays: set}, nil
}

// Load reads a calendar from a YAML file.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a calendar from YAML. Missing timezone means UTC and a
// missing session means DefaultSession.
func Parse(data []byte) (*Calendar, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	loc := time.UTC
	if f.Timezone != "" {
		l, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return nil, fmt.Errorf("calendar: timezone %q: %w", f.Timezone, err)
		}
		loc = l
	}

	session := DefaultSession
	if f.Session.Open != "" || f.Session.Close != "" {
		open, err := parseClock(f.Session.Open)
		if err != nil {
			return nil, err
		}
		closing, err := parseClock(f.Session.Close)
		if err != nil {
			return nil, err
		}
		session = Session{Open: open, Close: closing}
	}
	return New(loc, session, f.Holidays)
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("calendar: session time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// IsMarketOpen reports whether the market trades at t.
//
// For ResolutionDaily, t is a calendar date: its own year/month/day decide
// the answer, regardless of the calendar's zone. Finer resolutions convert t
// into the calendar's zone and also require the time to fall in the session.
func (c *Calendar) IsMarketOpen(t time.Time, res entity.Resolution) bool {
	if res == entity.ResolutionDaily {
		return c.isTradingDay(t)
	}
	local := t.In(c.loc)
	if !c.isTradingDay(local) {
		return false
	}
	m := local.Hour()*60 + local.Minute()
	return m >= c.session.Open && m < c.session.Close
}

// HolidayName returns the holiday's name when t's date is a listed holiday.
func (c *Calendar) HolidayName(t time.Time) (string, bool) {
	name, ok := c.holidays[t.Format(time.DateOnly)]
	return name, ok
}

func (c *Calendar) isTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[t.Format(time.DateOnly)]
	return !holiday
}
