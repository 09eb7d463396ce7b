package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/models"
)

const resultColumns = `r.id, r.exam_id, r.student_id, r.percentage, r.total_questions, r.raw_score,
	COALESCE(r.scan_image_path, ''), r.created_at,
	COALESCE(s.last_name || ' ' || s.first_name, '')`

const resultFrom = `
	FROM results r
	JOIN exams e ON e.id = r.exam_id
	LEFT JOIN students s ON s.id = r.student_id`

func scanResult(row interface{ Scan(...any) error }) (*models.Result, error) {
	var r models.Result
	var studentID sql.NullInt64
	if err := row.Scan(&r.ID, &r.ExamID, &studentID, &r.Percentage, &r.TotalQuestions, &r.RawScore,
		&r.ScanImagePath, &r.CreatedAt, &r.StudentName); err != nil {
		return nil, err
	}
	if studentID.Valid {
		id := studentID.Int64
		r.StudentID = &id
	}
	return &r, nil
}

// InsertResult сохраняет результат и все ответы одной транзакцией:
// либо видны результат и все его строки, либо ничего.
func InsertResult(ctx context.Context, database *sql.DB, r models.Result) (*models.Result, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, mapErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	var scan any
	if r.ScanImagePath != "" {
		scan = r.ScanImagePath
	}
	var resultID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO results (exam_id, student_id, percentage, total_questions, raw_score, scan_image_path)
		VALUES ($1, $2, round($3::numeric, 2), $4, $5, $6)
		RETURNING id
	`, r.ExamID, r.StudentID, r.Percentage, r.TotalQuestions, r.RawScore, scan).Scan(&resultID); err != nil {
		return nil, mapErr("insert result", err)
	}

	if len(r.Answers) > 0 {
		qids := make([]int64, len(r.Answers))
		nums := make([]int64, len(r.Answers))
		marks := make([]string, len(r.Answers))
		correct := make([]bool, len(r.Answers))
		for i, a := range r.Answers {
			if a.QuestionID == nil {
				return nil, fmt.Errorf("insert answers: answer %d has no question", a.QuestionNumber)
			}
			qids[i] = *a.QuestionID
			nums[i] = int64(a.QuestionNumber)
			marks[i] = a.MarkedAnswer
			correct[i] = a.IsCorrect
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO student_answers (result_id, question_id, question_number, marked_answer, is_correct)
			SELECT $1, q, n, m, c
			FROM unnest($2::bigint[], $3::integer[], $4::text[], $5::boolean[]) AS t(q, n, m, c)
		`, resultID, pq.Array(qids), pq.Array(nums), pq.Array(marks), pq.Array(correct)); err != nil {
			return nil, mapErr("insert answers", err)
		}
	}

	out, err := scanResult(tx.QueryRowContext(ctx, `SELECT `+resultColumns+resultFrom+` WHERE r.id = $1`, resultID))
	if err != nil {
		return nil, mapErr("reload result", err)
	}
	answers, err := listAnswers(ctx, tx, []int64{resultID})
	if err != nil {
		return nil, err
	}
	out.Answers = answers[resultID]

	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit", err)
	}
	return out, nil
}

// GetResultForTeacher — результат с ответами и вопросами, только по своим экзаменам.
func GetResultForTeacher(ctx context.Context, database *sql.DB, teacherID, resultID int64) (*models.Result, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	r, err := scanResult(database.QueryRowContext(ctx,
		`SELECT `+resultColumns+resultFrom+` WHERE r.id = $1 AND e.teacher_id = $2`, resultID, teacherID))
	if err != nil {
		return nil, mapErr("get result", err)
	}
	answers, err := listAnswers(ctx, database, []int64{r.ID})
	if err != nil {
		return nil, err
	}
	r.Answers = answers[r.ID]
	return r, nil
}

// ListResultsForTeacher — последние результаты по экзаменам учителя (examID=0 — по всем).
func ListResultsForTeacher(ctx context.Context, database *sql.DB, teacherID, examID int64) ([]models.Result, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + resultColumns + `, e.name` + resultFrom + ` WHERE e.teacher_id = $1`
	args := []any{teacherID}
	if examID > 0 {
		q += fmt.Sprintf(" AND r.exam_id = $%d", len(args)+1)
		args = append(args, examID)
	}
	q += " ORDER BY r.created_at DESC, r.id DESC"

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr("list results", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Result{}
	for rows.Next() {
		var examName string
		r, err := scanResult(scanAppend{rows, &examName})
		if err != nil {
			return nil, err
		}
		r.Exam = &models.Exam{ID: r.ExamID, TeacherID: teacherID, Name: examName}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ListResultsByExam — все результаты экзамена вместе с ответами (для выгрузки и статистики).
func ListResultsByExam(ctx context.Context, database *sql.DB, examID int64) ([]models.Result, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx,
		`SELECT `+resultColumns+resultFrom+` WHERE r.exam_id = $1 ORDER BY r.created_at, r.id`, examID)
	if err != nil {
		return nil, mapErr("list results", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Result
	var ids []int64
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	answers, err := listAnswers(ctx, database, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Answers = answers[out[i].ID]
	}
	return out, nil
}

func listAnswers(ctx context.Context, q querier, resultIDs []int64) (map[int64][]models.StudentAnswer, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.result_id, a.question_id, a.question_number, a.marked_answer, a.is_correct,
		       q.id, q.exam_id, q.question_number, q.correct_answer, q.points
		FROM student_answers a
		LEFT JOIN questions q ON q.id = a.question_id
		WHERE a.result_id = ANY($1::bigint[])
		ORDER BY a.result_id, a.id
	`, pq.Array(resultIDs))
	if err != nil {
		return nil, mapErr("list answers", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64][]models.StudentAnswer, len(resultIDs))
	for rows.Next() {
		var a models.StudentAnswer
		var qid sql.NullInt64
		var qID, qExam, qNum, qPoints sql.NullInt64
		var qAnswer sql.NullString
		if err := rows.Scan(&a.ID, &a.ResultID, &qid, &a.QuestionNumber, &a.MarkedAnswer, &a.IsCorrect,
			&qID, &qExam, &qNum, &qAnswer, &qPoints); err != nil {
			return nil, err
		}
		if qid.Valid {
			id := qid.Int64
			a.QuestionID = &id
		}
		if qID.Valid {
			a.Question = &models.Question{
				ID:             qID.Int64,
				ExamID:         qExam.Int64,
				QuestionNumber: int(qNum.Int64),
				CorrectAnswer:  qAnswer.String,
				Points:         int(qPoints.Int64),
			}
		}
		out[a.ResultID] = append(out[a.ResultID], a)
	}
	return out, rows.Err()
}

// QuestionStat — доля верных ответов по вопросу (item analysis).
type QuestionStat struct {
	QuestionNumber int     `json:"question_number"`
	CorrectAnswer  string  `json:"correct_answer"`
	Answered       int     `json:"answered"`
	Correct        int     `json:"correct"`
	CorrectRate    float64 `json:"correct_rate"`
}

// QuestionStats считает ответы по текущему ключу экзамена.
func QuestionStats(ctx context.Context, database *sql.DB, examID int64) ([]QuestionStat, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT q.question_number, q.correct_answer,
		       count(a.id), count(a.id) FILTER (WHERE a.is_correct)
		FROM questions q
		LEFT JOIN student_answers a ON a.question_id = q.id
		WHERE q.exam_id = $1
		GROUP BY q.question_number, q.correct_answer
		ORDER BY q.question_number
	`, examID)
	if err != nil {
		return nil, mapErr("question stats", err)
	}
	defer func() { _ = rows.Close() }()

	out := []QuestionStat{}
	for rows.Next() {
		var s QuestionStat
		if err := rows.Scan(&s.QuestionNumber, &s.CorrectAnswer, &s.Answered, &s.Correct); err != nil {
			return nil, err
		}
		if s.Answered > 0 {
			s.CorrectRate = float64(s.Correct) / float64(s.Answered)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanAppend дописывает в Scan дополнительные колонки после основных.
type scanAppend struct {
	rows  *sql.Rows
	extra *string
}

func (s scanAppend) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.extra)...)
}
