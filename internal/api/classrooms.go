package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/omr-grader/internal/grading"
	"github.com/Spok95/omr-grader/internal/models"
)

type createClassroomRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Section *string `json:"section" validate:"omitempty,max=255"`
}

type updateClassroomRequest struct {
	Name    *string          `json:"name" validate:"omitempty,max=255"`
	Section optional[string] `json:"section"`
}

// idParam — неверный id даёт 404, как и чужая запись.
func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, grading.ErrNotFound
	}
	return id, nil
}

func (s *Server) listClassrooms(c *fiber.Ctx) error {
	out, err := s.store.ListClassrooms(c.UserContext(), teacherID(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) createClassroom(c *fiber.Ctx) error {
	var req createClassroomRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return fieldErrors{}.add("name", "is required")
	}
	out, err := s.store.CreateClassroom(c.UserContext(), models.Classroom{
		TeacherID: teacherID(c),
		Name:      strings.TrimSpace(req.Name),
		Section:   req.Section,
	})
	if err != nil {
		return err
	}
	return created(c, out)
}

func (s *Server) showClassroom(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	out, err := s.store.GetClassroom(c.UserContext(), teacherID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) updateClassroom(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	cur, err := s.store.GetClassroom(ctx, teacherID(c), id)
	if err != nil {
		return err
	}

	var req updateClassroomRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fieldErrors{}.add("name", "is required")
		}
		cur.Name = strings.TrimSpace(*req.Name)
	}
	if req.Section.Set {
		if req.Section.Value != nil && len(*req.Section.Value) > 255 {
			return fieldErrors{}.add("section", "must be at most 255 characters")
		}
		cur.Section = req.Section.Value
	}

	out, err := s.store.UpdateClassroom(ctx, *cur)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) deleteClassroom(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteClassroom(c.UserContext(), teacherID(c), id); err != nil {
		return err
	}
	return noContent(c)
}
