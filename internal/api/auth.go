package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Spok95/omr-grader/internal/ctxutil"
)

// IssueToken выпускает HS256-токен учителя (user_id + exp).
func IssueToken(secret string, teacherID int64, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": teacherID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// teacherFromToken достаёт id учителя из bearer-токена (claim user_id или sub).
func teacherFromToken(header, secret string) (int64, error) {
	raw := strings.TrimSpace(header)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return 0, fmt.Errorf("missing authorization token")
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}

	id, ok := claimID(claims["user_id"])
	if !ok {
		id, ok = claimID(claims["sub"])
	}
	if !ok || id <= 0 {
		return 0, fmt.Errorf("invalid user id in token")
	}
	return id, nil
}

func claimID(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// requireTeacher — 401 без валидного токена; иначе teacher_id в контексте запроса.
func (s *Server) requireTeacher(c *fiber.Ctx) error {
	id, err := teacherFromToken(c.Get(fiber.HeaderAuthorization), s.jwtSecret)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	c.SetUserContext(ctxutil.WithTeacherID(c.UserContext(), id))
	c.Locals("teacher_id", id)
	return c.Next()
}

func teacherID(c *fiber.Ctx) int64 {
	id, _ := ctxutil.TeacherID(c.UserContext())
	return id
}
