package api

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/omr-grader/internal/export"
	"github.com/Spok95/omr-grader/internal/stats"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// examReport собирает результаты экзамена и анализ вопросов; экзамен должен быть своим.
func (s *Server) examReport(c *fiber.Ctx) (*stats.Report, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	ctx := c.UserContext()
	if _, err := s.store.GetExam(ctx, teacherID(c), id); err != nil {
		return nil, err
	}
	results, err := s.store.ListResultsByExam(ctx, id)
	if err != nil {
		return nil, err
	}
	qs, err := s.store.QuestionStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stats.Report{
		ExamID:  id,
		Summary: stats.Summarize(results),
		Items:   stats.Items(qs, results),
	}, nil
}

func (s *Server) examStats(c *fiber.Ctx) error {
	rep, err := s.examReport(c)
	if err != nil {
		return err
	}
	return c.JSON(rep)
}

func (s *Server) exportResults(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	exam, err := s.store.GetExamWithQuestions(ctx, teacherID(c), id)
	if err != nil {
		return err
	}
	results, err := s.store.ListResultsByExam(ctx, id)
	if err != nil {
		return err
	}
	qs, err := s.store.QuestionStats(ctx, id)
	if err != nil {
		return err
	}

	data, err := export.WriteExamResults(exam, results, stats.Items(qs, results))
	if err != nil {
		return err
	}
	name := export.BuildExamResultsFilename(exam.Name, exam.Date)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="exam-%d-results.xlsx"; filename*=UTF-8''%s`, id, url.PathEscape(name)))
	return c.Send(data)
}
