package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/grading"
	"github.com/Spok95/omr-grader/internal/metrics"
	"github.com/Spok95/omr-grader/internal/observability"
)

// ErrorResponse — тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}

func noContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// handleError — общий обработчик ошибок fiber: сторожевые ошибки в коды,
// 5xx в Sentry и лог. Тексты распознавателя отдаются как есть,
// с префиксом "OMR Processing Failed" или "OMR Logic Error".
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, body := classify(err)

	if status >= 500 {
		ctx := c.UserContext()
		metrics.HandlerErrors.Inc()
		s.log.For(ctx).Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		observability.CaptureErrCtx(ctx, err)
	}
	return c.Status(status).JSON(body)
}

func classify(err error) (int, ErrorResponse) {
	var fe fieldErrors
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fiber.StatusUnprocessableEntity, ErrorResponse{Error: "Validation Error", Details: fe}
	case errors.Is(err, grading.ErrValidation), errors.Is(err, db.ErrConflict):
		return fiber.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()}
	case errors.Is(err, grading.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse{Error: http.StatusText(http.StatusNotFound)}
	case errors.Is(err, grading.ErrRecognitionLogic), errors.Is(err, grading.ErrRecognitionProcess):
		return fiber.StatusInternalServerError, ErrorResponse{Error: err.Error()}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse{Error: fiberErr.Message}
	}
	return fiber.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
}
