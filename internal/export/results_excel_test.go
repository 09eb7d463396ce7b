package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/models"
	"github.com/Spok95/omr-grader/internal/stats"
)

func TestWriteExamResults(t *testing.T) {
	exam := &models.Exam{ID: 1, Name: "Midterm", Questions: []models.Question{
		{ID: 10, QuestionNumber: 1, CorrectAnswer: "A", Points: 1},
		{ID: 11, QuestionNumber: 2, CorrectAnswer: "B", Points: 1},
	}}
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	results := []models.Result{
		{ID: 5, StudentName: "Иванов Пётр", RawScore: 1, TotalQuestions: 20, Percentage: 50, CreatedAt: at,
			Answers: []models.StudentAnswer{{QuestionNumber: 1, MarkedAnswer: "A", IsCorrect: true}, {QuestionNumber: 2, MarkedAnswer: "C"}}},
		{ID: 6, RawScore: 0, TotalQuestions: 20, Percentage: 0, CreatedAt: at},
	}
	items := []stats.Item{{QuestionStat: db.QuestionStat{QuestionNumber: 1, CorrectAnswer: "A", Answered: 1, Correct: 1, CorrectRate: 1}}}

	data, err := WriteExamResults(exam, results, items)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{resultsSheet, itemsSheet}, f.GetSheetList())

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Ученик", "Дата", "Верных", "Всего вопросов", "Процент", "В1 (A)", "В2 (B)"}, rows[0])
	assert.Equal(t, []string{"5", "Иванов Пётр", "2026-03-01 09:30", "1", "20", "50", "A", "C"}, rows[1])
	assert.Equal(t, "—", rows[2][1])

	itemRows, err := f.GetRows(itemsSheet)
	require.NoError(t, err)
	require.Len(t, itemRows, 2)
	assert.Equal(t, "A", itemRows[1][1])
}

func TestBuildExamResultsFilename(t *testing.T) {
	d := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Результаты — 7_Б контрольная — 2026-05-20.xlsx", BuildExamResultsFilename(" 7/Б  контрольная ", &d))
	assert.Equal(t, "Результаты — — — без даты.xlsx", BuildExamResultsFilename("", nil))
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(1))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
	assert.Equal(t, "AZ", columnName(52))
}
