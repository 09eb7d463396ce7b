package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrNotFound — запись не существует или не принадлежит учителю.
	ErrNotFound = errors.New("not found")
	// ErrConflict — нарушение уникальности или ссылочной целостности во входных данных.
	ErrConflict = errors.New("conflict")
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// pgCode достаёт SQLSTATE из ошибок обоих драйверов (pgx в проде, lib/pq в тестах).
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	switch pgCode(err) {
	case codeUniqueViolation, codeCheckViolation:
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: timeout: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
