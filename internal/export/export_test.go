package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sandeepkv93/listo/internal/model"
	"github.com/sandeepkv93/listo/internal/projection"
)

func sample() ([]model.Task, projection.Clock) {
	now := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tasks := []model.Task{
		{ID: "1", Title: "Essay", Subject: "History", Status: model.StatusTodo, Priority: model.PriorityHigh, DueDate: &yesterday,
			Subtasks: []model.Subtask{{ID: "11", Title: "Outline", Completed: true}, {ID: "12", Title: "Draft"}}},
		{ID: "2", Title: "Flashcards", Status: model.StatusDone, Priority: model.PriorityLow},
	}
	return tasks, projection.NewClock(now, time.UTC, time.Sunday)
}

func TestWriteProducesThreeSheets(t *testing.T) {
	tasks, clock := sample()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tasks, clock))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetTasks, SheetSubtasks, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetTasks)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Title", rows[0][1])
	assert.Equal(t, []string{"1", "Essay", "History", "To do", "HIGH", "2026-02-08 09:00", "yes", "1/2", "50%"}, rows[1][:9])
	assert.Equal(t, "Done", rows[2][3])

	subs, err := f.GetRows(SheetSubtasks)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "Outline", subs[1][3])
	assert.Equal(t, "yes", subs[1][4])

	total, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	rate, err := f.GetCellValue(SheetSummary, "B9")
	require.NoError(t, err)
	assert.Equal(t, "50%", rate)
}

func TestWriteFileAddsExtension(t *testing.T) {
	tasks, clock := sample()
	path, err := WriteFile(filepath.Join(t.TempDir(), "nested", "out"), tasks, clock)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(SheetTasks, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Essay", v)

	_, err = WriteFile(" ", tasks, clock)
	assert.Error(t, err)
}

func TestDefaultFileName(t *testing.T) {
	assert.Equal(t, "listo-tasks-2026-02-09.xlsx", DefaultFileName(time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)))
}
