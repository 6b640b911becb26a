package update

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/projection"
	"github.com/sandeepkv93/listo/internal/views"
)

const dashboardListSize = 5

func (m Model) renderDashboardView() string {
	clock := m.clock()
	all := m.tasks.Tasks()
	stats := projection.Summarize(all, clock)

	greeting := "Welcome back"
	if m.User.FullName != "" {
		greeting += ", " + m.User.FullName
	}
	data := views.DashboardData{
		Greeting: greeting,
		Cards: []views.StatCard{
			{Label: "Total", Value: fmt.Sprint(stats.Total)},
			{Label: "Completed", Value: fmt.Sprint(stats.Completed)},
			{Label: "Pending", Value: fmt.Sprint(stats.Pending)},
			{Label: "In progress", Value: fmt.Sprint(stats.InProgress)},
			{Label: "Overdue", Value: fmt.Sprint(stats.Overdue)},
			{Label: "Due today", Value: fmt.Sprint(stats.DueToday)},
		},
		ProgressView:  m.completionBar.ViewAs(stats.CompletionRate()),
		CompletionPct: int(stats.CompletionRate()*100 + 0.5),
	}
	for _, p := range model.Priorities() {
		data.ByPriority = append(data.ByPriority, views.StatCard{
			Label: strings.ToLower(string(p)),
			Value: fmt.Sprint(stats.ByPriority[p]),
		})
	}
	for _, t := range projection.RecentlyCompleted(all, dashboardListSize) {
		data.Recent = append(data.Recent, m.taskLine(t, clock))
	}
	for _, t := range projection.Upcoming(all, clock, dashboardListSize) {
		data.Upcoming = append(data.Upcoming, m.taskLine(t, clock))
	}
	return views.RenderDashboard(data)
}
