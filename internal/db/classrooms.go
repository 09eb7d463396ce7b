package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/models"
)

const classroomColumns = `id, teacher_id, name, section, created_at, updated_at`

func scanClassroom(row interface{ Scan(...any) error }) (*models.Classroom, error) {
	var c models.Classroom
	var section sql.NullString
	if err := row.Scan(&c.ID, &c.TeacherID, &c.Name, &section, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if section.Valid {
		s := section.String
		c.Section = &s
	}
	return &c, nil
}

func CreateClassroom(ctx context.Context, database *sql.DB, c models.Classroom) (*models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	out, err := scanClassroom(database.QueryRowContext(ctx, `
		INSERT INTO classrooms (teacher_id, name, section)
		VALUES ($1, $2, $3)
		RETURNING `+classroomColumns,
		c.TeacherID, c.Name, c.Section))
	if err != nil {
		return nil, mapErr("create classroom", err)
	}
	return out, nil
}

func ListClassrooms(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+classroomColumns+`
		FROM classrooms
		WHERE teacher_id = $1
		ORDER BY name, id
	`, teacherID)
	if err != nil {
		return nil, mapErr("list classrooms", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Classroom{}
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetClassroom — класс учителя вместе со списком учеников.
func GetClassroom(ctx context.Context, database *sql.DB, teacherID, classroomID int64) (*models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	c, err := scanClassroom(database.QueryRowContext(ctx, `
		SELECT `+classroomColumns+` FROM classrooms WHERE id = $1 AND teacher_id = $2
	`, classroomID, teacherID))
	if err != nil {
		return nil, mapErr("get classroom", err)
	}

	rows, err := database.QueryContext(ctx, `
		SELECT `+studentColumnsS+`
		FROM students s
		JOIN classroom_students cs ON cs.student_id = s.id
		WHERE cs.classroom_id = $1
		ORDER BY s.last_name, s.first_name
	`, classroomID)
	if err != nil {
		return nil, mapErr("list classroom students", err)
	}
	defer func() { _ = rows.Close() }()

	c.Students = []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		c.Students = append(c.Students, *s)
	}
	return c, rows.Err()
}

func UpdateClassroom(ctx context.Context, database *sql.DB, c models.Classroom) (*models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	out, err := scanClassroom(database.QueryRowContext(ctx, `
		UPDATE classrooms
		SET name = $3, section = $4, updated_at = now()
		WHERE id = $1 AND teacher_id = $2
		RETURNING `+classroomColumns,
		c.ID, c.TeacherID, c.Name, c.Section))
	if err != nil {
		return nil, mapErr("update classroom", err)
	}
	return out, nil
}

func DeleteClassroom(ctx context.Context, database *sql.DB, teacherID, classroomID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1 AND teacher_id = $2`, classroomID, teacherID)
	if err != nil {
		return mapErr("delete classroom", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapErr("delete classroom", sql.ErrNoRows)
	}
	return nil
}
