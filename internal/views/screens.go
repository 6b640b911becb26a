package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type FieldData struct {
	Label   string
	View    string
	Focused bool
}

type LoginData struct {
	SignUp  bool
	Fields  []FieldData
	Error   string
	Pending bool
}

type StatCard struct {
	Label string
	Value string
}

type TaskLine struct {
	ID       string
	Title    string
	Subject  string
	Status   string
	Priority string
	Due      string
	Overdue  bool
}

type DashboardData struct {
	Greeting      string
	Cards         []StatCard
	ProgressView  string
	CompletionPct int
	ByPriority    []StatCard
	Recent        []TaskLine
	Upcoming      []TaskLine
}

type TaskListData struct {
	FilterSummary string
	TableView     string
	Shown         int
	Total         int
	Loading       string
	LoadError     string
}

type SubtaskLine struct {
	Title    string
	Done     bool
	Unsaved  bool
	Selected bool
}

type TaskDetailData struct {
	Task            *TaskLine
	DescriptionView string
	Subtasks        []SubtaskLine
	ProgressView    string
	ProgressPct     int
	Focused         bool
	EditorView      string
}

type DayCell struct {
	Label    string
	InPeriod bool
	Today    bool
	Titles   []string
}

type CalendarData struct {
	Title    string
	Mode     string
	Weekdays []string
	Weeks    [][]DayCell
}

type SettingsData struct {
	FullName      string
	Email         string
	Role          string
	SessionExpiry string
	Online        bool
	Commands      []string
	Password      *PasswordFormData
}

// PasswordFormData is the change-password form; nil hides it.
type PasswordFormData struct {
	Fields  []FieldData
	Error   string
	Pending bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	Commands    []string
	HelpView    string
}

func RenderLogin(data LoginData) string {
	var b strings.Builder
	if data.SignUp {
		b.WriteString("create your listo account\n\n")
	} else {
		b.WriteString("sign in to listo\n\n")
	}
	writeFields(&b, data.Fields)
	b.WriteString("\n")
	if data.Pending {
		b.WriteString("working...\n")
	}
	if data.Error != "" {
		b.WriteString(errorStyle.Render("error: "+data.Error) + "\n")
	}
	if data.SignUp {
		b.WriteString(mutedStyle.Render("[tab] next field [enter] sign up [ctrl+t] back to sign in"))
	} else {
		b.WriteString(mutedStyle.Render("[tab] next field [enter] sign in [ctrl+t] create an account"))
	}
	return b.String()
}

func writeFields(b *strings.Builder, fields []FieldData) {
	for _, f := range fields {
		cursor := " "
		if f.Focused {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-16s %s\n", cursor, f.Label+":", f.View))
	}
}

func RenderDashboard(data DashboardData) string {
	var b strings.Builder
	b.WriteString(data.Greeting + "\n")

	cards := make([]string, 0, len(data.Cards))
	for _, c := range data.Cards {
		cards = append(cards, cardStyle.Render(c.Label+"\n"+headerStyle.Render(c.Value)))
	}
	for i := 0; i < len(cards); i += 3 {
		end := min(i+3, len(cards))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...) + "\n")
	}

	b.WriteString(fmt.Sprintf("\ncompletion: %s %d%%\n", data.ProgressView, data.CompletionPct))
	if len(data.ByPriority) > 0 {
		parts := make([]string, 0, len(data.ByPriority))
		for _, p := range data.ByPriority {
			parts = append(parts, fmt.Sprintf("%s %s", p.Label, p.Value))
		}
		b.WriteString("priority: " + strings.Join(parts, " | ") + "\n")
	}

	b.WriteString("\nrecent activity:\n")
	writeTaskLines(&b, data.Recent, "no completed tasks yet")
	b.WriteString("\nupcoming:\n")
	writeTaskLines(&b, data.Upcoming, "nothing due")
	return strings.TrimSpace(b.String())
}

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("tasks: %d of %d", data.Shown, data.Total))
	if data.Loading != "" {
		b.WriteString(" " + data.Loading)
	}
	b.WriteString("\n")
	if data.FilterSummary != "" {
		b.WriteString(mutedStyle.Render("filter: "+data.FilterSummary) + "\n")
	}
	if data.LoadError != "" {
		b.WriteString(errorStyle.Render("could not load tasks: "+data.LoadError) + "\n")
	}
	if data.Shown == 0 && data.Loading == "" {
		if data.Total == 0 {
			b.WriteString("no tasks yet, add one with /add <title>\n")
		} else {
			b.WriteString("no tasks match the current filter\n")
		}
		return strings.TrimSpace(b.String())
	}
	b.WriteString(data.TableView + "\n")
	b.WriteString(mutedStyle.Render("[j/k]move [s]cycle status [enter]subtasks [e]edit notes [x]delete [r]reload"))
	return strings.TrimSpace(b.String())
}

func RenderTaskDetail(data TaskDetailData) string {
	if data.Task == nil {
		return "details:\n(no selection)"
	}
	t := data.Task
	var b strings.Builder
	b.WriteString(headerStyle.Render(t.Title) + "\n")
	b.WriteString(fmt.Sprintf("id: %s | %s | %s\n", t.ID, t.Status, t.Priority))
	if t.Subject != "" {
		b.WriteString("subject: " + t.Subject + "\n")
	}
	if t.Due != "" {
		due := "due: " + t.Due
		if t.Overdue {
			due = errorStyle.Render(due + " (overdue)")
		}
		b.WriteString(due + "\n")
	}
	if data.EditorView != "" {
		b.WriteString("\nnotes (ctrl+s save, esc cancel):\n" + data.EditorView + "\n")
	} else if data.DescriptionView != "" {
		b.WriteString("\n" + data.DescriptionView + "\n")
	}

	b.WriteString(fmt.Sprintf("\nsubtasks: %s %d%%\n", data.ProgressView, data.ProgressPct))
	if len(data.Subtasks) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, st := range data.Subtasks {
		cursor := " "
		if data.Focused && st.Selected {
			cursor = ">"
		}
		box := "[ ]"
		if st.Done {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %d. %s %s", cursor, i+1, box, st.Title)
		if st.Unsaved {
			line += mutedStyle.Render(" (saving)")
		}
		b.WriteString(line + "\n")
	}
	if data.Focused {
		b.WriteString(mutedStyle.Render("[j/k]move [space]toggle [x]remove [esc]back"))
	}
	return strings.TrimSpace(b.String())
}

func RenderCalendar(data CalendarData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("calendar: %s (%s)\n", data.Title, data.Mode))
	b.WriteString(mutedStyle.Render("[d]day [w]week [m]month [h/l]period [t]today") + "\n\n")

	if data.Mode == "day" {
		for _, week := range data.Weeks {
			for _, cell := range week {
				b.WriteString(cell.Label + "\n")
				if len(cell.Titles) == 0 {
					b.WriteString("  (nothing due)\n")
				}
				for _, title := range cell.Titles {
					b.WriteString("  - " + title + "\n")
				}
			}
		}
		return strings.TrimSpace(b.String())
	}

	const width = 11
	cellStyle := lipgloss.NewStyle().Width(width)
	header := make([]string, 0, len(data.Weekdays))
	for _, wd := range data.Weekdays {
		header = append(header, cellStyle.Render(wd))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...) + "\n")
	for _, week := range data.Weeks {
		cells := make([]string, 0, len(week))
		for _, cell := range week {
			lines := []string{cell.Label}
			for _, title := range cell.Titles {
				lines = append(lines, truncate(title, width-1))
			}
			style := cellStyle
			switch {
			case cell.Today:
				style = style.Bold(true).Foreground(lipgloss.Color("12"))
			case !cell.InPeriod:
				style = style.Foreground(lipgloss.Color("8"))
			}
			cells = append(cells, style.Render(strings.Join(lines, "\n")))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderSettings(data SettingsData) string {
	var b strings.Builder
	b.WriteString("profile:\n")
	b.WriteString(fmt.Sprintf("name: %s\nemail: %s\n", orDash(data.FullName), orDash(data.Email)))
	if data.Role != "" {
		b.WriteString("role: " + data.Role + "\n")
	}
	if data.SessionExpiry != "" {
		b.WriteString("session expires: " + data.SessionExpiry + "\n")
	}
	if data.Online {
		b.WriteString("network: online\n")
	} else {
		b.WriteString("network: offline\n")
	}
	if pw := data.Password; pw != nil {
		b.WriteString("\nchange password:\n")
		writeFields(&b, pw.Fields)
		if pw.Pending {
			b.WriteString("working...\n")
		}
		if pw.Error != "" {
			b.WriteString(errorStyle.Render("error: "+pw.Error) + "\n")
		}
		b.WriteString(mutedStyle.Render("[tab] next field [enter] update password [esc] cancel") + "\n")
		return strings.TrimSpace(b.String())
	}
	b.WriteString("\naccount commands:\n")
	for _, c := range data.Commands {
		b.WriteString("  /" + c + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command: " + inputView
}

func RenderNotification(level string, title string, body string) string {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return ""
	}
	text := title
	if body != "" && body != title {
		if text != "" {
			text += ": "
		}
		text += body
	}
	line := fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), text)
	if level == "error" {
		return errorStyle.Render(line)
	}
	return line
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("help (%s):\n", strings.ToLower(data.CurrentView)))
	b.WriteString(strings.Join(data.Bindings, "\n"))
	if len(data.Commands) > 0 {
		b.WriteString("\n\ncommands:\n")
		for _, c := range data.Commands {
			b.WriteString("  /" + c + "\n")
		}
	}
	if data.HelpView != "" {
		b.WriteString("\n" + data.HelpView)
	}
	return strings.TrimSpace(b.String())
}

func writeTaskLines(b *strings.Builder, lines []TaskLine, empty string) {
	if len(lines) == 0 {
		b.WriteString("  " + mutedStyle.Render(empty) + "\n")
		return
	}
	for _, t := range lines {
		line := fmt.Sprintf("  %s [%s]", t.Title, t.Priority)
		if t.Due != "" {
			line += " " + t.Due
		}
		if t.Overdue {
			line = errorStyle.Render(line + " overdue")
		}
		b.WriteString(line + "\n")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "~"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
