package projection

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/listo/internal/model"
)

type DateFilter string

const (
	DateAny      DateFilter = ""
	DateToday    DateFilter = "TODAY"
	DateThisWeek DateFilter = "WEEK"
)

func (f DateFilter) IsValid() bool {
	switch f {
	case DateAny, DateToday, DateThisWeek:
		return true
	default:
		return false
	}
}

func (f DateFilter) Label() string {
	switch f {
	case DateToday:
		return "Today"
	case DateThisWeek:
		return "This week"
	default:
		return "All dates"
	}
}

func ParseDateFilter(raw string) (DateFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "any":
		return DateAny, nil
	case "today":
		return DateToday, nil
	case "week", "this-week", "thisweek":
		return DateThisWeek, nil
	default:
		return "", fmt.Errorf("unknown date filter %q", raw)
	}
}

// Criteria selects tasks. Zero values mean "any".
type Criteria struct {
	Search   string
	Status   model.Status
	Priority model.Priority
	Date     DateFilter
}

func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" && c.Status == "" && c.Priority == "" && c.Date == DateAny
}

// Filter returns the tasks matching every criterion, in their original order.
func Filter(tasks []model.Task, c Criteria, clock Clock) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, c, clock) {
			out = append(out, t)
		}
	}
	return out
}

func Matches(t model.Task, c Criteria, clock Clock) bool {
	if term := strings.ToLower(strings.TrimSpace(c.Search)); term != "" {
		if !containsFold(t.Title, term) && !containsFold(t.Description, term) && !containsFold(t.Subject, term) {
			return false
		}
	}
	if c.Status != "" && t.Status != c.Status {
		return false
	}
	if c.Priority != "" && t.Priority != c.Priority {
		return false
	}
	switch c.Date {
	case DateToday:
		return DueToday(t, clock)
	case DateThisWeek:
		return DueThisWeek(t, clock)
	}
	return true
}

func DueToday(t model.Task, clock Clock) bool {
	if !t.HasDueDate() {
		return false
	}
	return SameDay(clock.local(*t.DueDate), clock.Today())
}

func DueThisWeek(t model.Task, clock Clock) bool {
	if !t.HasDueDate() {
		return false
	}
	start, end := clock.ThisWeek()
	due := clock.local(*t.DueDate)
	return !due.Before(start) && due.Before(end)
}

func containsFold(field, lowerTerm string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowerTerm)
}
