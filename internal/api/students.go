package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/omr-grader/internal/models"
)

type createStudentRequest struct {
	FirstName   string  `json:"first_name" validate:"required"`
	LastName    string  `json:"last_name" validate:"required"`
	ExternalID  *string `json:"external_id"`
	ClassroomID int64   `json:"classroom_id" validate:"required,gt=0"`
}

func (s *Server) listStudents(c *fiber.Ctx) error {
	out, err := s.store.ListStudents(c.UserContext(), teacherID(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// createStudent — ученик создаётся сразу в классе учителя; чужой класс даёт 404.
func (s *Server) createStudent(c *fiber.Ctx) error {
	var req createStudentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	var fe fieldErrors
	if strings.TrimSpace(req.FirstName) == "" {
		fe = fe.add("first_name", "is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		fe = fe.add("last_name", "is required")
	}
	if fe != nil {
		return fe
	}

	out, err := s.store.CreateStudent(c.UserContext(), teacherID(c), req.ClassroomID, models.Student{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		ExternalID: req.ExternalID,
	})
	if err != nil {
		return err
	}
	return created(c, out)
}

func (s *Server) showStudent(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	out, err := s.store.GetStudent(c.UserContext(), teacherID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
