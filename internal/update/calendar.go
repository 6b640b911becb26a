package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/views"
)

const calendarTitlesPerDay = 3

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "d":
		m.setCalendarMode(projection.GranularityDay)
	case "w":
		m.setCalendarMode(projection.GranularityWeek)
	case "m":
		m.setCalendarMode(projection.GranularityMonth)
	case "h", "left":
		m.shiftCalendarFocus(-1)
	case "l", "right":
		m.shiftCalendarFocus(1)
	case "t":
		m.Calendar.FocusDate = m.clock().Today()
		m.Status = StatusBar{Text: "calendar: today"}
	}
	return m
}

func (m *Model) setCalendarMode(mode projection.Granularity) {
	m.Calendar.Mode = mode
	m.Status = StatusBar{Text: fmt.Sprintf("calendar mode: %s", mode)}
	m.savePreference(preferenceCalendarMode, string(mode))
}

func (m *Model) shiftCalendarFocus(delta int) {
	m.Calendar.FocusDate = projection.Shift(m.Calendar.FocusDate, m.Calendar.Mode, delta)
	m.Status = StatusBar{Text: fmt.Sprintf("calendar focus: %s", m.Calendar.FocusDate.Format("2006-01-02"))}
}

func (m Model) renderCalendarView() string {
	clock := m.clock()
	mode := m.Calendar.Mode
	buckets := projection.Buckets(m.tasks.Tasks(), m.Calendar.FocusDate, mode, clock)

	data := views.CalendarData{
		Title: projection.Title(m.Calendar.FocusDate, mode, clock.WeekStart),
		Mode:  string(mode),
	}
	for i := 0; i < 7; i++ {
		data.Weekdays = append(data.Weekdays, time.Weekday((int(clock.WeekStart)+i)%7).String()[:3])
	}
	for _, week := range projection.Weeks(buckets) {
		row := make([]views.DayCell, 0, len(week))
		for _, day := range week {
			cell := views.DayCell{
				Label:    fmt.Sprint(day.Date.Day()),
				InPeriod: day.InPeriod,
				Today:    day.Today,
			}
			if mode == projection.GranularityDay {
				cell.Label = day.Date.Format("Monday, January 2")
			}
			for i, t := range day.Tasks {
				if mode != projection.GranularityDay && i == calendarTitlesPerDay {
					cell.Titles = append(cell.Titles, fmt.Sprintf("+%d more", len(day.Tasks)-i))
					break
				}
				title := t.Title
				if mode == projection.GranularityDay {
					title = fmt.Sprintf("%s %s [%s]", t.DueDate.In(clock.Location).Format("15:04"), t.Title, t.Status.Label())
				}
				cell.Titles = append(cell.Titles, title)
			}
			row = append(row, cell)
		}
		data.Weeks = append(data.Weeks, row)
	}
	return views.RenderCalendar(data)
}
