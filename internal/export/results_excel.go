package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/omr-grader/internal/models"
	"github.com/Spok95/omr-grader/internal/stats"
)

const (
	resultsSheet = "Результаты"
	itemsSheet   = "Вопросы"
)

// ExamWorkbook строит книгу: лист результатов (по строке на скан, отметки по вопросам
// ключа в колонках) и лист анализа вопросов.
func ExamWorkbook(exam *models.Exam, results []models.Result, items []stats.Item) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"ID", "Ученик", "Дата", "Верных", "Всего вопросов", "Процент"}
	for _, q := range exam.Questions {
		header = append(header, fmt.Sprintf("В%d (%s)", q.QuestionNumber, q.CorrectAnswer))
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("results header: %w", err)
	}

	for i, r := range results {
		marks := make(map[int]string, len(r.Answers))
		for _, a := range r.Answers {
			marks[a.QuestionNumber] = a.MarkedAnswer
		}
		name := r.StudentName
		if name == "" {
			name = "—"
		}
		row := []any{r.ID, name, r.CreatedAt.Format("2006-01-02 15:04"), r.RawScore, r.TotalQuestions, r.Percentage}
		for _, q := range exam.Questions {
			row = append(row, marks[q.QuestionNumber])
		}
		if err := f.SetSheetRow(resultsSheet, cell(1, i+2), &row); err != nil {
			return nil, fmt.Errorf("results row %d: %w", i+2, err)
		}
	}
	if err := ApplyDefaultExcelFormatting(f, resultsSheet); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	itemHeader := []any{"Вопрос", "Ключ", "Отвечено", "Верно", "Доля верных", "Дискриминация"}
	if err := f.SetSheetRow(itemsSheet, "A1", &itemHeader); err != nil {
		return nil, fmt.Errorf("items header: %w", err)
	}
	for i, it := range items {
		row := []any{it.QuestionNumber, it.CorrectAnswer, it.Answered, it.Correct, it.CorrectRate, it.Discrimination}
		if err := f.SetSheetRow(itemsSheet, cell(1, i+2), &row); err != nil {
			return nil, fmt.Errorf("items row %d: %w", i+2, err)
		}
	}
	if err := ApplyDefaultExcelFormatting(f, itemsSheet); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteExamResults — книга целиком в память, для отдачи по HTTP.
func WriteExamResults(exam *models.Exam, results []models.Result, items []stats.Item) ([]byte, error) {
	f, err := ExamWorkbook(exam, results, items)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
