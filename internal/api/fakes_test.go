package api

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/omr-grader/internal/db"
	"github.com/Spok95/omr-grader/internal/grading"
	"github.com/Spok95/omr-grader/internal/models"
)

// memStore — Store в памяти с той же семантикой владения, что и у SQL.
type memStore struct {
	mu         sync.Mutex
	seq        int64
	classrooms map[int64]*models.Classroom
	students   map[int64]*models.Student
	membership map[int64][]int64 // student -> classrooms
	exams      map[int64]*models.Exam
	results    map[int64]*models.Result
	pingErr    error
}

func newMemStore() *memStore {
	return &memStore{
		classrooms: map[int64]*models.Classroom{},
		students:   map[int64]*models.Student{},
		membership: map[int64][]int64{},
		exams:      map[int64]*models.Exam{},
		results:    map[int64]*models.Result{},
	}
}

func (m *memStore) next() int64 { m.seq++; return m.seq }

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateClassroom(_ context.Context, c models.Classroom) (*models.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.next()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	m.classrooms[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) ListClassrooms(_ context.Context, teacherID int64) ([]models.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Classroom{}
	for _, c := range m.classrooms {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetClassroom(_ context.Context, teacherID, id int64) (*models.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classrooms[id]
	if !ok || c.TeacherID != teacherID {
		return nil, db.ErrNotFound
	}
	out := *c
	out.Students = []models.Student{}
	for sid, cids := range m.membership {
		for _, cid := range cids {
			if cid == id {
				out.Students = append(out.Students, *m.students[sid])
			}
		}
	}
	return &out, nil
}

func (m *memStore) UpdateClassroom(_ context.Context, c models.Classroom) (*models.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.classrooms[c.ID]
	if !ok || cur.TeacherID != c.TeacherID {
		return nil, db.ErrNotFound
	}
	cur.Name, cur.Section = c.Name, c.Section
	out := *cur
	return &out, nil
}

func (m *memStore) DeleteClassroom(_ context.Context, teacherID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classrooms[id]
	if !ok || c.TeacherID != teacherID {
		return db.ErrNotFound
	}
	delete(m.classrooms, id)
	return nil
}

func (m *memStore) CreateStudent(_ context.Context, teacherID, classroomID int64, s models.Student) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classrooms[classroomID]
	if !ok || c.TeacherID != teacherID {
		return nil, db.ErrNotFound
	}
	s.ID = m.next()
	m.students[s.ID] = &s
	m.membership[s.ID] = append(m.membership[s.ID], classroomID)
	out := s
	return &out, nil
}

func (m *memStore) ownsStudent(teacherID, id int64) bool {
	for _, cid := range m.membership[id] {
		if c, ok := m.classrooms[cid]; ok && c.TeacherID == teacherID {
			return true
		}
	}
	return false
}

func (m *memStore) ListStudents(_ context.Context, teacherID int64) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Student{}
	for id, s := range m.students {
		if m.ownsStudent(teacherID, id) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) GetStudent(_ context.Context, teacherID, id int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ownsStudent(teacherID, id) {
		return nil, db.ErrNotFound
	}
	out := *m.students[id]
	return &out, nil
}

func (m *memStore) CreateExam(_ context.Context, e models.Exam) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !e.OMRCode.Valid() {
		return nil, db.ErrConflict
	}
	e.ID = m.next()
	m.exams[e.ID] = &e
	out := e
	return &out, nil
}

func (m *memStore) ListExams(_ context.Context, teacherID int64) ([]models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Exam{}
	for _, e := range m.exams {
		if e.TeacherID == teacherID {
			x := *e
			x.Questions = nil
			out = append(out, x)
		}
	}
	return out, nil
}

func (m *memStore) GetExam(ctx context.Context, teacherID, id int64) (*models.Exam, error) {
	e, err := m.GetExamWithQuestions(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}
	e.Questions = nil
	return e, nil
}

func (m *memStore) GetExamWithQuestions(_ context.Context, teacherID, id int64) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok || e.TeacherID != teacherID {
		return nil, db.ErrNotFound
	}
	out := *e
	out.Questions = append([]models.Question{}, e.Questions...)
	return &out, nil
}

func (m *memStore) UpdateExam(_ context.Context, e models.Exam) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.exams[e.ID]
	if !ok || cur.TeacherID != e.TeacherID {
		return nil, db.ErrNotFound
	}
	cur.Name, cur.Date, cur.OMRCode = e.Name, e.Date, e.OMRCode
	out := *cur
	out.Questions = nil
	return &out, nil
}

func (m *memStore) DeleteExam(_ context.Context, teacherID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok || e.TeacherID != teacherID {
		return db.ErrNotFound
	}
	delete(m.exams, id)
	return nil
}

func (m *memStore) ReplaceAnswerKey(_ context.Context, teacherID, examID int64, qs []models.Question) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok || e.TeacherID != teacherID {
		return nil, db.ErrNotFound
	}
	e.Questions = nil
	for _, q := range qs {
		q.ID = m.next()
		q.ExamID = examID
		e.Questions = append(e.Questions, q)
	}
	out := *e
	return &out, nil
}

func (m *memStore) ListResults(_ context.Context, teacherID, examID int64) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Result{}
	for _, r := range m.results {
		e := m.exams[r.ExamID]
		if e == nil || e.TeacherID != teacherID || (examID > 0 && r.ExamID != examID) {
			continue
		}
		x := *r
		x.Answers = nil
		out = append(out, x)
	}
	return out, nil
}

func (m *memStore) GetResult(_ context.Context, teacherID, id int64) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok || m.exams[r.ExamID] == nil || m.exams[r.ExamID].TeacherID != teacherID {
		return nil, db.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *memStore) ListResultsByExam(_ context.Context, examID int64) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Result
	for _, r := range m.results {
		if r.ExamID == examID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) QuestionStats(_ context.Context, examID int64) ([]db.QuestionStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.exams[examID]
	if e == nil {
		return []db.QuestionStat{}, nil
	}
	out := make([]db.QuestionStat, 0, len(e.Questions))
	for _, q := range e.Questions {
		st := db.QuestionStat{QuestionNumber: q.QuestionNumber, CorrectAnswer: q.CorrectAnswer}
		for _, r := range m.results {
			for _, a := range r.Answers {
				if a.QuestionID != nil && *a.QuestionID == q.ID {
					st.Answered++
					if a.IsCorrect {
						st.Correct++
					}
				}
			}
		}
		if st.Answered > 0 {
			st.CorrectRate = float64(st.Correct) / float64(st.Answered)
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *memStore) addResult(r models.Result) *models.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.next()
	r.CreatedAt = time.Now()
	m.results[r.ID] = &r
	return &r
}

// fakeScorer возвращает заготовленный ответ и запоминает запрос.
type fakeScorer struct {
	out      *grading.Scored
	err      error
	req      grading.ScoreRequest
	teacher  int64
	imageLen int
}

func (f *fakeScorer) Score(_ context.Context, teacherID int64, req grading.ScoreRequest) (*grading.Scored, error) {
	f.teacher = teacherID
	f.req = req
	if req.Image != nil {
		buf := make([]byte, 1<<20)
		for {
			n, err := req.Image.Read(buf)
			f.imageLen += n
			if err != nil {
				break
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.out == nil {
		return nil, errors.New("fakeScorer: no output configured")
	}
	return f.out, nil
}
