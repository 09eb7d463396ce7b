package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/models"
)

const studentColumnsS = `s.id, s.first_name, s.last_name, s.external_id, s.created_at, s.updated_at`

// ученик «принадлежит» учителю, если состоит хотя бы в одном его классе
const ownedStudentCond = `EXISTS (
	SELECT 1 FROM classroom_students cs
	JOIN classrooms c ON c.id = cs.classroom_id
	WHERE cs.student_id = s.id AND c.teacher_id = $1
)`

func scanStudent(row interface{ Scan(...any) error }) (*models.Student, error) {
	var s models.Student
	var ext sql.NullString
	if err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &ext, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if ext.Valid {
		v := ext.String
		s.ExternalID = &v
	}
	return &s, nil
}

// CreateStudent создаёт ученика и сразу прикрепляет к классу учителя.
func CreateStudent(ctx context.Context, database *sql.DB, teacherID, classroomID int64, s models.Student) (*models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, mapErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	var owned int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM classrooms WHERE id = $1 AND teacher_id = $2`, classroomID, teacherID).Scan(&owned); err != nil {
		return nil, mapErr("check classroom", err)
	}

	out, err := scanStudent(tx.QueryRowContext(ctx, `
		INSERT INTO students AS s (first_name, last_name, external_id)
		VALUES ($1, $2, $3)
		RETURNING `+studentColumnsS,
		s.FirstName, s.LastName, s.ExternalID))
	if err != nil {
		return nil, mapErr("create student", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO classroom_students (classroom_id, student_id) VALUES ($1, $2)`, classroomID, out.ID); err != nil {
		return nil, mapErr("attach student", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit", err)
	}
	return out, nil
}

// ListStudents — ученики из всех классов учителя.
func ListStudents(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+studentColumnsS+`
		FROM students s
		WHERE `+ownedStudentCond+`
		ORDER BY s.last_name, s.first_name, s.id
	`, teacherID)
	if err != nil {
		return nil, mapErr("list students", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetStudent — ученик вместе с классами учителя, в которых он состоит.
func GetStudent(ctx context.Context, database *sql.DB, teacherID, studentID int64) (*models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	s, err := scanStudent(database.QueryRowContext(ctx, `
		SELECT `+studentColumnsS+`
		FROM students s
		WHERE `+ownedStudentCond+` AND s.id = $2
	`, teacherID, studentID))
	if err != nil {
		return nil, mapErr("get student", err)
	}

	rows, err := database.QueryContext(ctx, `
		SELECT c.id, c.teacher_id, c.name, c.section, c.created_at, c.updated_at
		FROM classrooms c
		JOIN classroom_students cs ON cs.classroom_id = c.id
		WHERE cs.student_id = $1 AND c.teacher_id = $2
		ORDER BY c.name
	`, studentID, teacherID)
	if err != nil {
		return nil, mapErr("list student classrooms", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		s.Classrooms = append(s.Classrooms, *c)
	}
	return s, rows.Err()
}

// StudentOwnedBy — проверка, что ученик состоит в одном из классов учителя.
func StudentOwnedBy(ctx context.Context, database *sql.DB, teacherID, studentID int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var ok bool
	err := database.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM students s WHERE s.id = $2 AND `+ownedStudentCond+`)
	`, teacherID, studentID).Scan(&ok)
	if err != nil {
		return false, mapErr("check student", err)
	}
	return ok, nil
}
