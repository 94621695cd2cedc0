// Package session decides which exchanges are trading at a given instant.
package session

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

const (
	IsraelZone = "Asia/Jerusalem"
	USZone     = "America/New_York"
)

// Window is a daily trading window in an exchange's own time zone.
// Both ends are inclusive at minute resolution.
type Window struct {
	Location *time.Location
	Open     time.Duration // since local midnight
	Close    time.Duration
}

// ParseWindow builds a Window from "HH:MM" strings.
func ParseWindow(zone, open, close string) (Window, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Window{}, fmt.Errorf("load zone %s: %w", zone, err)
	}
	o, err := parseClock(open)
	if err != nil {
		return Window{}, err
	}
	c, err := parseClock(close)
	if err != nil {
		return Window{}, err
	}
	if c <= o {
		return Window{}, fmt.Errorf("window %s-%s closes before it opens", open, close)
	}
	return Window{Location: loc, Open: o, Close: c}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// local returns now in the window's zone and the minute of day it falls on.
func (w Window) local(now time.Time) (time.Time, time.Duration) {
	t := now.In(w.Location)
	return t, time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

// position returns -1 before the window, 0 inside it and 1 after it.
func (w Window) position(now time.Time) int {
	_, m := w.local(now)
	switch {
	case m < w.Open:
		return -1
	case m > w.Close:
		return 1
	default:
		return 0
	}
}

// Classifier maps an instant onto the Tel Aviv and US sessions.
type Classifier struct {
	Israel  Window
	US      Window
	Weekend []time.Weekday // evaluated in the US zone
}

// Default returns the classifier with the stock trading hours:
// Tel Aviv 09:59-17:25, New York 09:30-16:00, closed Saturday and Sunday.
func Default() (*Classifier, error) {
	il, err := ParseWindow(IsraelZone, "09:59", "17:25")
	if err != nil {
		return nil, err
	}
	us, err := ParseWindow(USZone, "09:30", "16:00")
	if err != nil {
		return nil, err
	}
	return &Classifier{Israel: il, US: us, Weekend: []time.Weekday{time.Saturday, time.Sunday}}, nil
}

// Classify returns both sessions at now.
func (c *Classifier) Classify(now time.Time) model.Sessions {
	return model.Sessions{Israel: c.israel(now), US: c.us(now)}
}

func (c *Classifier) israel(now time.Time) model.IsraelSession {
	switch c.Israel.position(now) {
	case -1:
		return model.IsraelBeforeOpen
	case 0:
		return model.IsraelOpen
	default:
		return model.IsraelAfterClose
	}
}

func (c *Classifier) us(now time.Time) model.USSession {
	local, _ := c.US.local(now)
	for _, d := range c.Weekend {
		if local.Weekday() == d {
			return model.USClosedWeekend
		}
	}
	switch c.US.position(now) {
	case -1:
		return model.USPreMarket
	case 0:
		return model.USOpen
	default:
		return model.USPostMarket
	}
}

// UntilOpen is the time left until Tel Aviv opens today, rounded up to the
// minute. It is zero once the window has been reached.
func (c *Classifier) UntilOpen(now time.Time) time.Duration {
	local, _ := c.Israel.local(now)
	y, mo, d := local.Date()
	open := time.Date(y, mo, d, 0, 0, 0, 0, c.Israel.Location).Add(c.Israel.Open)
	left := open.Sub(local)
	if left <= 0 {
		return 0
	}
	if r := left % time.Minute; r != 0 {
		left += time.Minute - r
	}
	return left
}

// UseLiveIndex reports whether US benchmarks should be read from the index
// itself. Outside the cash session on weekdays the index does not move, so
// the tracking ETF is used instead.
func UseLiveIndex(us model.USSession) bool {
	return us == model.USOpen || us == model.USClosedWeekend
}

// ParseWeekdays converts names like "saturday" or "Sun" into weekdays.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if key == full || (len(key) == 3 && strings.HasPrefix(full, key)) {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return out, nil
}
