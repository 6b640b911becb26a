// Package projection computes read-only views over a task list: filtering,
// calendar bucketing and dashboard statistics. Nothing here mutates its input
// or caches results.
package projection

import "time"

// Clock fixes "now", the local zone and the first day of the week for one
// projection pass.
type Clock struct {
	Now       time.Time
	Location  *time.Location
	WeekStart time.Weekday
}

func NewClock(now time.Time, loc *time.Location, weekStart time.Weekday) Clock {
	return Clock{Now: now, Location: loc, WeekStart: weekStart}
}

func (c Clock) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Today is local midnight of the current day.
func (c Clock) Today() time.Time {
	return StartOfDay(c.Now.In(c.loc()))
}

// ThisWeek returns the current calendar week as [start, end).
func (c Clock) ThisWeek() (time.Time, time.Time) {
	start := StartOfWeek(c.Now.In(c.loc()), c.WeekStart)
	return start, start.AddDate(0, 0, 7)
}

func (c Clock) local(t time.Time) time.Time {
	return t.In(c.loc())
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek is midnight of the weekStart day on or before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
