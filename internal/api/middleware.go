package api

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/metrics"
	"github.com/Spok95/omr-grader/internal/observability"
)

const headerRequestID = "X-Request-ID"

// requestID берёт X-Request-ID клиента или выдаёт новый.
func requestID(c *fiber.Ctx) error {
	id := c.Get(headerRequestID)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Set(headerRequestID, id)
	c.SetUserContext(ctxutil.WithRequestID(c.UserContext(), id))
	return c.Next()
}

// recoverer превращает панику обработчика в 500 и отправляет её в Sentry.
func (s *Server) recoverer(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			s.log.For(c.UserContext()).Error("panic in handler",
				zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			observability.CaptureErrCtx(c.UserContext(), perr)
			err = fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}
	}()
	return c.Next()
}

// requestLogger пишет строку на запрос и считает omr_http_requests_total.
// Ошибку цепочки обрабатывает сам, чтобы в лог попал итоговый статус.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	if chainErr := c.Next(); chainErr != nil {
		if err := s.handleError(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	metrics.HTTPRequests.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()

	log := s.log.For(c.UserContext())
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
		zap.String("ip", c.IP()),
	}
	if status >= 500 {
		log.Warn("http request", fields...)
	} else {
		log.Debug("http request", fields...)
	}
	return nil
}
