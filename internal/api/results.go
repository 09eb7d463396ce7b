package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Spok95/omr-grader/internal/grading"
	"github.com/Spok95/omr-grader/internal/models"
	"github.com/Spok95/omr-grader/internal/storage"
)

// scoredResponse — сохранённый результат с ответами плюс ссылка на отладочную картинку.
type scoredResponse struct {
	*models.Result
	// ответы отдаются всегда, даже пустым списком
	Answers       []models.StudentAnswer `json:"student_answers"`
	DebugImageURL string                 `json:"debug_image_url,omitempty"`
}

func (s *Server) listResults(c *fiber.Ctx) error {
	var examID int64
	if v := c.Query("exam_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return fieldErrors{}.add("exam_id", "must be a positive integer")
		}
		examID = id
	}
	out, err := s.store.ListResults(c.UserContext(), teacherID(c), examID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) showResult(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	out, err := s.store.GetResult(c.UserContext(), teacherID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// scoreScan — multipart: exam_id, total_questions, scan_image, необязательный student_id.
func (s *Server) scoreScan(c *fiber.Ctx) error {
	req, fe := scoreForm(c)
	fh, err := c.FormFile("scan_image")
	if err != nil {
		fe = fe.add("scan_image", "is required")
	}
	if fe != nil {
		return fe
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !storage.AllowedExt(ext) {
		return fieldErrors{}.add("scan_image", "must be an image")
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := sniffImage(f)
	if err != nil {
		return err
	}
	req.Image = img
	req.ImageExt = ext

	scored, err := s.scorer.Score(c.UserContext(), teacherID(c), req)
	if err != nil {
		return err
	}
	resp := scoredResponse{Result: scored.Result, Answers: scored.Result.Answers, DebugImageURL: scored.DebugImageURL}
	if resp.Answers == nil {
		resp.Answers = []models.StudentAnswer{}
	}
	return created(c, resp)
}

func scoreForm(c *fiber.Ctx) (grading.ScoreRequest, fieldErrors) {
	var req grading.ScoreRequest
	var fe fieldErrors

	if v := strings.TrimSpace(c.FormValue("exam_id")); v == "" {
		fe = fe.add("exam_id", "is required")
	} else if id, err := strconv.ParseInt(v, 10, 64); err != nil || id <= 0 {
		fe = fe.add("exam_id", "must be a positive integer")
	} else {
		req.ExamID = id
	}

	if v := strings.TrimSpace(c.FormValue("total_questions")); v == "" {
		fe = fe.add("total_questions", "is required")
	} else if n, err := strconv.Atoi(v); err != nil || n <= 0 {
		fe = fe.add("total_questions", "must be a positive integer")
	} else {
		req.TotalQuestions = n
	}

	if v := strings.TrimSpace(c.FormValue("student_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			fe = fe.add("student_id", "must be a positive integer")
		} else {
			req.StudentID = &id
		}
	}
	return req, fe
}

// sniffImage проверяет сигнатуру файла и возвращает reader с начала содержимого.
func sniffImage(r io.Reader) (io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return nil, fieldErrors{}.add("scan_image", "must be an image")
	}
	return io.MultiReader(bytes.NewReader(head), r), nil
}
