// Package export writes task lists to spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/projection"
)

const (
	SheetTasks    = "Tasks"
	SheetSubtasks = "Subtasks"
	SheetSummary  = "Summary"

	dateLayout = "2006-01-02 15:04"
)

type column struct {
	header string
	width  float64
}

var taskColumns = []column{
	{"ID", 10}, {"Title", 40}, {"Subject", 18}, {"Status", 14}, {"Priority", 10},
	{"Due", 18}, {"Overdue", 9}, {"Subtasks", 10}, {"Progress", 10}, {"Description", 50},
}

var subtaskColumns = []column{
	{"Task ID", 10}, {"Task", 40}, {"Subtask ID", 38}, {"Subtask", 40}, {"Completed", 11},
}

// Write renders tasks as an xlsx workbook with a task sheet, a subtask sheet
// and a summary sheet.
func Write(w io.Writer, tasks []model.Task, clock projection.Clock) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTasks); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSubtasks, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F46E5"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	loc := clock.Location
	if loc == nil {
		loc = time.Local
	}

	taskRows := make([][]any, 0, len(tasks))
	var subtaskRows [][]any
	for _, t := range tasks {
		due := ""
		if t.HasDueDate() {
			due = t.DueDate.In(loc).Format(dateLayout)
		}
		taskRows = append(taskRows, []any{
			t.ID, t.Title, t.Subject, t.Status.Label(), string(t.Priority),
			due, yesNo(projection.IsOverdue(t, clock)),
			fmt.Sprintf("%d/%d", t.CompletedSubtasks(), len(t.Subtasks)),
			fmt.Sprintf("%.0f%%", t.Progress()*100), t.Description,
		})
		for _, st := range t.Subtasks {
			subtaskRows = append(subtaskRows, []any{t.ID, t.Title, st.ID, st.Title, yesNo(st.Completed)})
		}
	}
	if err := writeSheet(f, SheetTasks, taskColumns, taskRows, headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, SheetSubtasks, subtaskColumns, subtaskRows, headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, SheetSummary, []column{{"Metric", 20}, {"Value", 12}}, summaryRows(projection.Summarize(tasks, clock)), headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the workbook to path, creating parent directories, and
// returns the absolute path.
func WriteFile(path string, tasks []model.Task, clock projection.Clock) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("export: path is required")
	}
	if filepath.Ext(path) == "" {
		path += ".xlsx"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	out, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := Write(out, tasks, clock); err != nil {
		_ = out.Close()
		return "", err
	}
	return abs, out.Close()
}

// DefaultFileName is listo-tasks-<date>.xlsx.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("listo-tasks-%s.xlsx", now.Format("2006-01-02"))
}

func writeSheet(f *excelize.File, sheet string, columns []column, rows [][]any, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream %s: %w", sheet, err)
	}
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: col.header}
		if err := sw.SetColWidth(i+1, i+1, col.width); err != nil {
			return err
		}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return sw.Flush()
}

func summaryRows(s projection.Stats) [][]any {
	rows := [][]any{
		{"Total", s.Total},
		{"Completed", s.Completed},
		{"Pending", s.Pending},
		{"In progress", s.InProgress},
		{"Overdue", s.Overdue},
		{"Due today", s.DueToday},
		{"Due this week", s.DueThisWeek},
		{"Completion rate", fmt.Sprintf("%.0f%%", s.CompletionRate()*100)},
	}
	for _, p := range model.Priorities() {
		rows = append(rows, []any{"Priority " + strings.ToLower(string(p)), s.ByPriority[p]})
	}
	return rows
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
