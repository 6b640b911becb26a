package projection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/listo/internal/model"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	default:
		return false
	}
}

func ParseGranularity(raw string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(raw)))
	if !g.IsValid() {
		return "", fmt.Errorf("unknown calendar view %q", raw)
	}
	return g, nil
}

// Range is the half-open interval [Start, End) of visible days.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Days() int {
	n := 0
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// VisibleRange is the span of days the calendar shows for ref. Month grids
// are padded out to whole weeks on both ends.
func VisibleRange(ref time.Time, g Granularity, weekStart time.Weekday) Range {
	day := StartOfDay(ref)
	switch g {
	case GranularityDay:
		return Range{Start: day, End: day.AddDate(0, 0, 1)}
	case GranularityMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		last := first.AddDate(0, 1, -1)
		return Range{
			Start: StartOfWeek(first, weekStart),
			End:   StartOfWeek(last, weekStart).AddDate(0, 0, 7),
		}
	default:
		start := StartOfWeek(day, weekStart)
		return Range{Start: start, End: start.AddDate(0, 0, 7)}
	}
}

type DayBucket struct {
	Date time.Time
	// InPeriod is false for the padding days of a month grid.
	InPeriod bool
	Today    bool
	Tasks    []model.Task
}

// Buckets groups tasks by due day across the visible range of ref. Tasks
// without a due date are left out; within a day tasks are ordered by due time.
func Buckets(tasks []model.Task, ref time.Time, g Granularity, clock Clock) []DayBucket {
	ref = clock.local(ref)
	r := VisibleRange(ref, g, clock.WeekStart)
	today := clock.Today()

	var out []DayBucket
	index := make(map[string]int)
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		index[dayKey(d)] = len(out)
		out = append(out, DayBucket{
			Date:     d,
			InPeriod: g != GranularityMonth || d.Month() == ref.Month(),
			Today:    SameDay(d, today),
		})
	}
	for _, t := range tasks {
		if !t.HasDueDate() {
			continue
		}
		i, ok := index[dayKey(clock.local(*t.DueDate))]
		if !ok {
			continue
		}
		out[i].Tasks = append(out[i].Tasks, t)
	}
	for i := range out {
		sort.SliceStable(out[i].Tasks, func(a, b int) bool {
			return out[i].Tasks[a].DueDate.Before(*out[i].Tasks[b].DueDate)
		})
	}
	return out
}

// Weeks splits a bucket list into rows of seven.
func Weeks(buckets []DayBucket) [][]DayBucket {
	var rows [][]DayBucket
	for len(buckets) > 0 {
		n := min(7, len(buckets))
		rows = append(rows, buckets[:n])
		buckets = buckets[n:]
	}
	return rows
}

// Shift moves ref by delta periods. Month steps keep the day of month where
// the target month allows it.
func Shift(ref time.Time, g Granularity, delta int) time.Time {
	switch g {
	case GranularityDay:
		return ref.AddDate(0, 0, delta)
	case GranularityMonth:
		first := time.Date(ref.Year(), ref.Month()+time.Month(delta), 1, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
		day := min(ref.Day(), daysIn(first))
		return first.AddDate(0, 0, day-1)
	default:
		return ref.AddDate(0, 0, 7*delta)
	}
}

// Title is the heading for the period containing ref.
func Title(ref time.Time, g Granularity, weekStart time.Weekday) string {
	switch g {
	case GranularityDay:
		return ref.Format("Monday, January 2, 2006")
	case GranularityMonth:
		return ref.Format("January 2006")
	default:
		r := VisibleRange(ref, g, weekStart)
		return fmt.Sprintf("%s - %s", r.Start.Format("Jan 2"), r.End.AddDate(0, 0, -1).Format("Jan 2, 2006"))
	}
}

func daysIn(monthStart time.Time) int {
	return monthStart.AddDate(0, 1, -1).Day()
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
