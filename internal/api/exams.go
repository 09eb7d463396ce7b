package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/omr-grader/internal/models"
)

type createExamRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Date    *string `json:"date"`
	OMRCode int     `json:"omr_code" validate:"required,oneof=20 50 100"`
}

type updateExamRequest struct {
	Name    *string          `json:"name" validate:"omitempty,max=255"`
	Date    optional[string] `json:"date"`
	OMRCode *int             `json:"omr_code" validate:"omitempty,oneof=20 50 100"`
}

type replaceQuestionsRequest struct {
	Questions []models.QuestionInput `json:"questions" validate:"required,dive"`
}

func (s *Server) listExams(c *fiber.Ctx) error {
	out, err := s.store.ListExams(c.UserContext(), teacherID(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) createExam(c *fiber.Ctx) error {
	var req createExamRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return fieldErrors{}.add("name", "is required")
	}
	e := models.Exam{TeacherID: teacherID(c), Name: strings.TrimSpace(req.Name), OMRCode: models.OMRCode(req.OMRCode)}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return fieldErrors{}.add("date", "must be a valid date")
		}
		e.Date = d
	}

	out, err := s.store.CreateExam(c.UserContext(), e)
	if err != nil {
		return err
	}
	return created(c, out)
}

// showExam — экзамен вместе с ключом ответов.
func (s *Server) showExam(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	out, err := s.store.GetExamWithQuestions(c.UserContext(), teacherID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) updateExam(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	cur, err := s.store.GetExam(ctx, teacherID(c), id)
	if err != nil {
		return err
	}

	var req updateExamRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fieldErrors{}.add("name", "is required")
		}
		cur.Name = strings.TrimSpace(*req.Name)
	}
	if req.Date.Set {
		cur.Date = nil
		if req.Date.Value != nil {
			d, err := parseDate(*req.Date.Value)
			if err != nil {
				return fieldErrors{}.add("date", "must be a valid date")
			}
			cur.Date = d
		}
	}
	if req.OMRCode != nil {
		cur.OMRCode = models.OMRCode(*req.OMRCode)
	}

	out, err := s.store.UpdateExam(ctx, *cur)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) deleteExam(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteExam(c.UserContext(), teacherID(c), id); err != nil {
		return err
	}
	return noContent(c)
}

// replaceQuestions целиком заменяет ключ ответов; points по умолчанию 1.
// Пустой список допустим: экзамен без ключа проверяется с нулевым результатом.
func (s *Server) replaceQuestions(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req replaceQuestionsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	qs, err := answerKey(req.Questions)
	if err != nil {
		return err
	}

	out, err := s.store.ReplaceAnswerKey(c.UserContext(), teacherID(c), id, qs)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func answerKey(in []models.QuestionInput) ([]models.Question, error) {
	seen := make(map[int]int, len(in))
	out := make([]models.Question, 0, len(in))
	var fe fieldErrors
	for i, q := range in {
		if j, dup := seen[q.QuestionNumber]; dup {
			fe = fe.add(fmt.Sprintf("questions[%d].question_number", i),
				fmt.Sprintf("duplicates questions[%d]", j))
			continue
		}
		seen[q.QuestionNumber] = i
		points := 1
		if q.Points != nil {
			points = *q.Points
		}
		out = append(out, models.Question{
			QuestionNumber: q.QuestionNumber,
			CorrectAnswer:  q.CorrectAnswer,
			Points:         points,
		})
	}
	if fe != nil {
		return nil, fe
	}
	return out, nil
}
