package grading

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/omr-grader/internal/models"
	"github.com/Spok95/omr-grader/internal/recognizer"
)

type fakeStore struct {
	exam      *models.Exam
	examErr   error
	students  map[int64]bool
	recordErr error
	records   []Draft
}

func (f *fakeStore) ExamWithQuestions(_ context.Context, teacherID, examID int64) (*models.Exam, error) {
	if f.examErr != nil {
		return nil, f.examErr
	}
	if f.exam == nil || f.exam.ID != examID || f.exam.TeacherID != teacherID {
		return nil, ErrNotFound
	}
	return f.exam, nil
}

func (f *fakeStore) StudentOwnedBy(_ context.Context, _, studentID int64) (bool, error) {
	return f.students[studentID], nil
}

func (f *fakeStore) Record(_ context.Context, d Draft) (*models.Result, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.records = append(f.records, d)
	r := d.Result()
	r.ID = int64(len(f.records))
	return &r, nil
}

type fakeRecognizer struct {
	out   *models.Recognition
	err   error
	calls int
	path  string
	wait  bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imagePath string) (*models.Recognition, error) {
	f.calls++
	f.path = imagePath
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.out, f.err
}

type fakeScans struct {
	saved   []string
	removed []string
	saveErr error
}

func (f *fakeScans) Save(_ context.Context, r io.Reader, ext string) (string, string, error) {
	if f.saveErr != nil {
		return "", "", f.saveErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", "", err
	}
	rel := fmt.Sprintf("scans/%d%s", len(f.saved)+1, ext)
	f.saved = append(f.saved, rel)
	return rel, "/data/" + rel, nil
}

func (f *fakeScans) Remove(rel string) error {
	f.removed = append(f.removed, rel)
	return nil
}

func (f *fakeScans) URL(name string) string { return "http://omr.test/storage/scans/" + name }

func threeQuestionExam() *models.Exam {
	return exam(q(1, "A", 1), q(2, "B", 1), q(3, "C", 1))
}

func newTestService(store *fakeStore, rec *fakeRecognizer, scans *fakeScans) *Service {
	return NewService(store, rec, scans, time.Second, nil)
}

func request() ScoreRequest {
	return ScoreRequest{ExamID: 1, TotalQuestions: 20, Image: bytes.NewReader([]byte("jpeg")), ImageExt: ".jpg"}
}

func TestScore_ScenarioA(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}
	rec := &fakeRecognizer{out: &models.Recognition{
		Answers:    []models.Detection{det(1, "A"), det(2, "C"), det(4, "Z")},
		DebugImage: "dbg.jpg",
	}}
	scans := &fakeScans{}

	out, err := newTestService(store, rec, scans).Score(context.Background(), 7, request())
	require.NoError(t, err)

	assert.Equal(t, "/data/scans/1.jpg", rec.path)
	require.Len(t, store.records, 1)
	d := store.records[0]
	assert.Equal(t, 20, d.TotalQuestions, "total_questions берётся из запроса")
	assert.Equal(t, "scans/1.jpg", d.ScanImagePath)

	assert.Equal(t, 1, out.Result.RawScore)
	assert.InDelta(t, 33.33, out.Result.Percentage, 0.01)
	assert.Len(t, out.Result.Answers, 2)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, "http://omr.test/storage/scans/dbg.jpg", out.DebugImageURL)
	assert.Empty(t, scans.removed)
}

func TestScore_ScenarioB_EmptyKey(t *testing.T) {
	store := &fakeStore{exam: exam()}
	rec := &fakeRecognizer{out: &models.Recognition{Answers: []models.Detection{det(1, "A")}}}

	out, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, request())
	require.NoError(t, err)

	assert.Equal(t, 0, out.Result.RawScore)
	assert.Equal(t, 0.0, out.Result.Percentage)
	assert.Empty(t, out.Result.Answers)
	assert.Empty(t, out.DebugImageURL)
}

func TestScore_RecognizerFailuresPersistNothing(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"logic error", fmt.Errorf("%w: Could not find 4 corners of the OMR sheet.", recognizer.ErrLogic), ErrRecognitionLogic},
		{"crash", fmt.Errorf("%w: exit code 1: Traceback", recognizer.ErrProcess), ErrRecognitionProcess},
		{"unknown error", errors.New("boom"), ErrRecognitionProcess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{exam: threeQuestionExam()}
			scans := &fakeScans{}
			rec := &fakeRecognizer{err: tc.err}

			_, err := newTestService(store, rec, scans).Score(context.Background(), 7, request())

			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, store.records)
			assert.Equal(t, []string{"scans/1.jpg"}, scans.removed)
		})
	}
}

func TestScore_LogicErrorKeepsMessage(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}
	rec := &fakeRecognizer{err: fmt.Errorf("%w: Could not find 4 corners of the OMR sheet.", recognizer.ErrLogic)}

	_, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, request())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not find 4 corners of the OMR sheet.")
}

func TestScore_NilRecognitionIsProcessFailure(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}

	_, err := newTestService(store, &fakeRecognizer{}, &fakeScans{}).Score(context.Background(), 7, request())

	require.ErrorIs(t, err, ErrRecognitionProcess)
	assert.Empty(t, store.records)
}

func TestScore_Timeout(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}
	rec := &fakeRecognizer{wait: true}
	svc := NewService(store, rec, &fakeScans{}, 20*time.Millisecond, nil)

	_, err := svc.Score(context.Background(), 7, request())

	require.ErrorIs(t, err, ErrRecognitionProcess)
	assert.Empty(t, store.records)
}

func TestScore_ForeignExamBeforeRecognition(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}
	rec := &fakeRecognizer{out: &models.Recognition{}}
	scans := &fakeScans{}

	_, err := newTestService(store, rec, scans).Score(context.Background(), 8, request())

	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, rec.calls, "распознаватель не вызывается")
	assert.Empty(t, scans.saved, "скан не сохраняется")
}

func TestScore_ForeignStudent(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam(), students: map[int64]bool{5: true}}
	rec := &fakeRecognizer{out: &models.Recognition{}}

	req := request()
	sid := int64(6)
	req.StudentID = &sid
	_, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, req)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, rec.calls)

	sid = 5
	req.Image = bytes.NewReader([]byte("jpeg"))
	out, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, req)
	require.NoError(t, err)
	require.NotNil(t, out.Result.StudentID)
	assert.Equal(t, int64(5), *out.Result.StudentID)
}

func TestScore_Validation(t *testing.T) {
	neg := int64(-1)
	cases := map[string]func(*ScoreRequest){
		"no exam":           func(r *ScoreRequest) { r.ExamID = 0 },
		"zero questions":    func(r *ScoreRequest) { r.TotalQuestions = 0 },
		"negative question": func(r *ScoreRequest) { r.TotalQuestions = -3 },
		"no image":          func(r *ScoreRequest) { r.Image = nil },
		"bad student":       func(r *ScoreRequest) { r.StudentID = &neg },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := &fakeStore{exam: threeQuestionExam()}
			rec := &fakeRecognizer{}
			req := request()
			mutate(&req)

			_, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, req)

			require.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, rec.calls)
		})
	}
}

func TestScore_PersistenceFailure(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam(), recordErr: errors.New("connection reset")}
	rec := &fakeRecognizer{out: &models.Recognition{Answers: []models.Detection{det(1, "A")}}}

	_, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, request())

	require.ErrorIs(t, err, ErrPersistence)
}

func TestScore_ScanStoreFailure(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}
	rec := &fakeRecognizer{}

	_, err := newTestService(store, rec, &fakeScans{saveErr: errors.New("disk full")}).Score(context.Background(), 7, request())

	require.Error(t, err)
	assert.Zero(t, rec.calls)
}

func TestScore_Duplicates(t *testing.T) {
	store := &fakeStore{exam: threeQuestionExam()}
	rec := &fakeRecognizer{out: &models.Recognition{Answers: []models.Detection{det(1, "B"), det(1, "A")}}}

	out, err := newTestService(store, rec, &fakeScans{}).Score(context.Background(), 7, request())
	require.NoError(t, err)

	assert.Equal(t, 1, out.Duplicates)
	assert.Equal(t, 1, out.Result.RawScore)
	require.Len(t, out.Result.Answers, 1)
	assert.Equal(t, "A", out.Result.Answers[0].MarkedAnswer)
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "ok", outcomeLabel(nil))
	assert.Equal(t, "validation", outcomeLabel(fmt.Errorf("%w: x", ErrValidation)))
	assert.Equal(t, "not_found", outcomeLabel(fmt.Errorf("exam: %w", ErrNotFound)))
	assert.Equal(t, "recognition_logic", outcomeLabel(fmt.Errorf("%w: x", ErrRecognitionLogic)))
	assert.Equal(t, "recognition_process", outcomeLabel(ErrRecognitionProcess))
	assert.Equal(t, "persistence", outcomeLabel(ErrPersistence))
	assert.Equal(t, "other", outcomeLabel(errors.New("x")))
}
