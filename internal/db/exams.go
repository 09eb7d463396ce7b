package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/models"
)

const examColumns = `id, teacher_id, name, exam_date, omr_code, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }) (*models.Exam, error) {
	var e models.Exam
	var date sql.NullTime
	if err := row.Scan(&e.ID, &e.TeacherID, &e.Name, &date, &e.OMRCode, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.Time
		e.Date = &d
	}
	return &e, nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}

func CreateExam(ctx context.Context, database *sql.DB, e models.Exam) (*models.Exam, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		INSERT INTO exams (teacher_id, name, exam_date, omr_code)
		VALUES ($1, $2, $3, $4)
		RETURNING `+examColumns,
		e.TeacherID, e.Name, nullDate(e.Date), int(e.OMRCode))
	out, err := scanExam(row)
	if err != nil {
		return nil, mapErr("create exam", err)
	}
	return out, nil
}

func ListExamsByTeacher(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Exam, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+examColumns+`
		FROM exams
		WHERE teacher_id = $1
		ORDER BY created_at DESC, id DESC
	`, teacherID)
	if err != nil {
		return nil, mapErr("list exams", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetExamForTeacher — экзамен без вопросов; ErrNotFound, если чужой.
func GetExamForTeacher(ctx context.Context, database *sql.DB, teacherID, examID int64) (*models.Exam, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	e, err := scanExam(database.QueryRowContext(ctx, `
		SELECT `+examColumns+` FROM exams WHERE id = $1 AND teacher_id = $2
	`, examID, teacherID))
	if err != nil {
		return nil, mapErr("get exam", err)
	}
	return e, nil
}

// GetExamWithQuestions читает экзамен и весь ключ в одном снимке (REPEATABLE READ),
// поэтому параллельная замена ключа не даст увидеть пустой или смешанный набор.
func GetExamWithQuestions(ctx context.Context, database *sql.DB, teacherID, examID int64) (*models.Exam, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, mapErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	e, err := scanExam(tx.QueryRowContext(ctx, `
		SELECT `+examColumns+` FROM exams WHERE id = $1 AND teacher_id = $2
	`, examID, teacherID))
	if err != nil {
		return nil, mapErr("get exam", err)
	}
	qs, err := listQuestions(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	e.Questions = qs
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit", err)
	}
	return e, nil
}

func UpdateExam(ctx context.Context, database *sql.DB, e models.Exam) (*models.Exam, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	out, err := scanExam(database.QueryRowContext(ctx, `
		UPDATE exams
		SET name = $3, exam_date = $4, omr_code = $5, updated_at = now()
		WHERE id = $1 AND teacher_id = $2
		RETURNING `+examColumns,
		e.ID, e.TeacherID, e.Name, nullDate(e.Date), int(e.OMRCode)))
	if err != nil {
		return nil, mapErr("update exam", err)
	}
	return out, nil
}

// DeleteExam удаляет экзамен; вопросы, результаты и ответы уходят каскадом.
func DeleteExam(ctx context.Context, database *sql.DB, teacherID, examID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `DELETE FROM exams WHERE id = $1 AND teacher_id = $2`, examID, teacherID)
	if err != nil {
		return mapErr("delete exam", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapErr("delete exam", sql.ErrNoRows)
	}
	return nil
}

func listQuestions(ctx context.Context, q querier, examID int64) ([]models.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, exam_id, question_number, correct_answer, points
		FROM questions
		WHERE exam_id = $1
		ORDER BY question_number
	`, examID)
	if err != nil {
		return nil, mapErr("list questions", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Question{}
	for rows.Next() {
		var qq models.Question
		if err := rows.Scan(&qq.ID, &qq.ExamID, &qq.QuestionNumber, &qq.CorrectAnswer, &qq.Points); err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	return out, rows.Err()
}

// ReplaceAnswerKey — атомарная замена ключа: строка экзамена блокируется FOR UPDATE
// на всё время delete+insert, конкурирующие замены выстраиваются в очередь.
func ReplaceAnswerKey(ctx context.Context, database *sql.DB, teacherID, examID int64, qs []models.Question) (*models.Exam, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, mapErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	e, err := scanExam(tx.QueryRowContext(ctx, `
		SELECT `+examColumns+` FROM exams WHERE id = $1 AND teacher_id = $2 FOR UPDATE
	`, examID, teacherID))
	if err != nil {
		return nil, mapErr("lock exam", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return nil, mapErr("delete questions", err)
	}

	if len(qs) > 0 {
		nums := make([]int64, len(qs))
		answers := make([]string, len(qs))
		points := make([]int64, len(qs))
		for i, q := range qs {
			nums[i] = int64(q.QuestionNumber)
			answers[i] = q.CorrectAnswer
			points[i] = int64(q.Points)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO questions (exam_id, question_number, correct_answer, points)
			SELECT $1, n, a, p
			FROM unnest($2::integer[], $3::text[], $4::integer[]) AS t(n, a, p)
		`, examID, pq.Array(nums), pq.Array(answers), pq.Array(points)); err != nil {
			return nil, mapErr("insert questions", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE exams SET updated_at = now() WHERE id = $1`, examID); err != nil {
		return nil, mapErr("touch exam", err)
	}

	e.Questions, err = listQuestions(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit", err)
	}
	return e, nil
}
