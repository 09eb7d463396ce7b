package api

import (
	"context"
	"database/sql"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/models"
)

// Store — всё, что HTTP-слою нужно от хранилища. Каждый метод ограничен учителем.
type Store interface {
	Ping(ctx context.Context) error

	CreateClassroom(ctx context.Context, c models.Classroom) (*models.Classroom, error)
	ListClassrooms(ctx context.Context, teacherID int64) ([]models.Classroom, error)
	GetClassroom(ctx context.Context, teacherID, id int64) (*models.Classroom, error)
	UpdateClassroom(ctx context.Context, c models.Classroom) (*models.Classroom, error)
	DeleteClassroom(ctx context.Context, teacherID, id int64) error

	CreateStudent(ctx context.Context, teacherID, classroomID int64, s models.Student) (*models.Student, error)
	ListStudents(ctx context.Context, teacherID int64) ([]models.Student, error)
	GetStudent(ctx context.Context, teacherID, id int64) (*models.Student, error)

	CreateExam(ctx context.Context, e models.Exam) (*models.Exam, error)
	ListExams(ctx context.Context, teacherID int64) ([]models.Exam, error)
	GetExam(ctx context.Context, teacherID, id int64) (*models.Exam, error)
	GetExamWithQuestions(ctx context.Context, teacherID, id int64) (*models.Exam, error)
	UpdateExam(ctx context.Context, e models.Exam) (*models.Exam, error)
	DeleteExam(ctx context.Context, teacherID, id int64) error
	ReplaceAnswerKey(ctx context.Context, teacherID, examID int64, qs []models.Question) (*models.Exam, error)

	ListResults(ctx context.Context, teacherID, examID int64) ([]models.Result, error)
	GetResult(ctx context.Context, teacherID, id int64) (*models.Result, error)
	ListResultsByExam(ctx context.Context, examID int64) ([]models.Result, error)
	QuestionStats(ctx context.Context, examID int64) ([]db.QuestionStat, error)
}

// SQLStore — Store поверх пакета db.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(database *sql.DB) *SQLStore { return &SQLStore{db: database} }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) CreateClassroom(ctx context.Context, c models.Classroom) (*models.Classroom, error) {
	return db.CreateClassroom(ctx, s.db, c)
}

func (s *SQLStore) ListClassrooms(ctx context.Context, teacherID int64) ([]models.Classroom, error) {
	return db.ListClassrooms(ctx, s.db, teacherID)
}

func (s *SQLStore) GetClassroom(ctx context.Context, teacherID, id int64) (*models.Classroom, error) {
	return db.GetClassroom(ctx, s.db, teacherID, id)
}

func (s *SQLStore) UpdateClassroom(ctx context.Context, c models.Classroom) (*models.Classroom, error) {
	return db.UpdateClassroom(ctx, s.db, c)
}

func (s *SQLStore) DeleteClassroom(ctx context.Context, teacherID, id int64) error {
	return db.DeleteClassroom(ctx, s.db, teacherID, id)
}

func (s *SQLStore) CreateStudent(ctx context.Context, teacherID, classroomID int64, st models.Student) (*models.Student, error) {
	return db.CreateStudent(ctx, s.db, teacherID, classroomID, st)
}

func (s *SQLStore) ListStudents(ctx context.Context, teacherID int64) ([]models.Student, error) {
	return db.ListStudents(ctx, s.db, teacherID)
}

func (s *SQLStore) GetStudent(ctx context.Context, teacherID, id int64) (*models.Student, error) {
	return db.GetStudent(ctx, s.db, teacherID, id)
}

func (s *SQLStore) CreateExam(ctx context.Context, e models.Exam) (*models.Exam, error) {
	return db.CreateExam(ctx, s.db, e)
}

func (s *SQLStore) ListExams(ctx context.Context, teacherID int64) ([]models.Exam, error) {
	return db.ListExamsByTeacher(ctx, s.db, teacherID)
}

func (s *SQLStore) GetExam(ctx context.Context, teacherID, id int64) (*models.Exam, error) {
	return db.GetExamForTeacher(ctx, s.db, teacherID, id)
}

func (s *SQLStore) GetExamWithQuestions(ctx context.Context, teacherID, id int64) (*models.Exam, error) {
	return db.GetExamWithQuestions(ctx, s.db, teacherID, id)
}

func (s *SQLStore) UpdateExam(ctx context.Context, e models.Exam) (*models.Exam, error) {
	return db.UpdateExam(ctx, s.db, e)
}

func (s *SQLStore) DeleteExam(ctx context.Context, teacherID, id int64) error {
	return db.DeleteExam(ctx, s.db, teacherID, id)
}

func (s *SQLStore) ReplaceAnswerKey(ctx context.Context, teacherID, examID int64, qs []models.Question) (*models.Exam, error) {
	return db.ReplaceAnswerKey(ctx, s.db, teacherID, examID, qs)
}

func (s *SQLStore) ListResults(ctx context.Context, teacherID, examID int64) ([]models.Result, error) {
	return db.ListResultsForTeacher(ctx, s.db, teacherID, examID)
}

func (s *SQLStore) GetResult(ctx context.Context, teacherID, id int64) (*models.Result, error) {
	return db.GetResultForTeacher(ctx, s.db, teacherID, id)
}

func (s *SQLStore) ListResultsByExam(ctx context.Context, examID int64) ([]models.Result, error) {
	return db.ListResultsByExam(ctx, s.db, examID)
}

func (s *SQLStore) QuestionStats(ctx context.Context, examID int64) ([]db.QuestionStat, error) {
	return db.QuestionStats(ctx, s.db, examID)
}
