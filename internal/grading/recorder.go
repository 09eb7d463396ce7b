package grading

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/models"
)

// Draft — всё, что нужно записать об одной попытке.
type Draft struct {
	ExamID         int64
	StudentID      *int64
	TotalQuestions int // заявлено клиентом (ёмкость бланка), не выводится из ключа
	Reconciliation Reconciliation
	Percentage     float64
	ScanImagePath  string
}

// Result переводит черновик в модель для записи.
func (d Draft) Result() models.Result {
	r := models.Result{
		ExamID:         d.ExamID,
		StudentID:      d.StudentID,
		Percentage:     d.Percentage,
		TotalQuestions: d.TotalQuestions,
		RawScore:       d.Reconciliation.RawScore,
		ScanImagePath:  d.ScanImagePath,
		Answers:        make([]models.StudentAnswer, 0, len(d.Reconciliation.Outcomes)),
	}
	for _, o := range d.Reconciliation.Outcomes {
		qid := o.QuestionID
		r.Answers = append(r.Answers, models.StudentAnswer{
			QuestionID:     &qid,
			QuestionNumber: o.QuestionNumber,
			MarkedAnswer:   o.MarkedAnswer,
			IsCorrect:      o.IsCorrect,
		})
	}
	return r
}

type Recorder interface {
	Record(ctx context.Context, d Draft) (*models.Result, error)
}

// Store — то, что конвейеру нужно от хранилища.
type Store interface {
	Recorder
	ExamWithQuestions(ctx context.Context, teacherID, examID int64) (*models.Exam, error)
	StudentOwnedBy(ctx context.Context, teacherID, studentID int64) (bool, error)
}

// SQLStore — Store поверх пакета db.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(database *sql.DB) *SQLStore { return &SQLStore{db: database} }

func (s *SQLStore) ExamWithQuestions(ctx context.Context, teacherID, examID int64) (*models.Exam, error) {
	return db.GetExamWithQuestions(ctx, s.db, teacherID, examID)
}

func (s *SQLStore) StudentOwnedBy(ctx context.Context, teacherID, studentID int64) (bool, error) {
	return db.StudentOwnedBy(ctx, s.db, teacherID, studentID)
}

// Record пишет результат и ответы атомарно; любая ошибка — ErrPersistence.
func (s *SQLStore) Record(ctx context.Context, d Draft) (*models.Result, error) {
	res, err := db.InsertResult(ctx, s.db, d.Result())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return res, nil
}
