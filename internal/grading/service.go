package grading

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/omr-grader/internal/ctxutil"
	"github.com/Spok95/omr-grader/internal/logging"
	"github.com/Spok95/omr-grader/internal/metrics"
	"github.com/Spok95/omr-grader/internal/models"
)

// Recognizer — внешний распознаватель отметок: путь к изображению на входе,
// отметки или ошибка на выходе.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (*models.Recognition, error)
}

// ScanStore хранит загруженные сканы и отладочные картинки.
type ScanStore interface {
	Save(ctx context.Context, r io.Reader, ext string) (rel, abs string, err error)
	Remove(rel string) error
	URL(name string) string
}

type ScoreRequest struct {
	ExamID         int64
	StudentID      *int64
	TotalQuestions int
	Image          io.Reader
	ImageExt       string
}

type Scored struct {
	Result        *models.Result
	DebugImageURL string
	Skipped       int
	Duplicates    int
}

type Service struct {
	store   Store
	rec     Recognizer
	scans   ScanStore
	timeout time.Duration
	log     *logging.Log
}

func NewService(store Store, rec Recognizer, scans ScanStore, timeout time.Duration, log *logging.Log) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{store: store, rec: rec, scans: scans, timeout: timeout, log: log}
}

// Score — полный конвейер: проверка владения, распознавание, сверка, подсчёт, запись.
// Владение проверяется до вызова распознавателя; при любой ошибке распознавания
// ни результат, ни ответы не записываются.
func (s *Service) Score(ctx context.Context, teacherID int64, req ScoreRequest) (out *Scored, err error) {
	ctx = ctxutil.WithOp(ctx, "score_scan")
	log := s.log.For(ctx).With(zap.Int64("exam_id", req.ExamID))
	defer func() {
		metrics.Scans.WithLabelValues(outcomeLabel(err)).Inc()
	}()

	if err := validate(req); err != nil {
		return nil, err
	}

	exam, err := s.store.ExamWithQuestions(ctx, teacherID, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("load exam %d: %w", req.ExamID, err)
	}
	if req.StudentID != nil {
		ok, err := s.store.StudentOwnedBy(ctx, teacherID, *req.StudentID)
		if err != nil {
			return nil, fmt.Errorf("check student %d: %w", *req.StudentID, err)
		}
		if !ok {
			return nil, fmt.Errorf("student %d: %w", *req.StudentID, ErrNotFound)
		}
	}

	rel, abs, err := s.scans.Save(ctx, req.Image, req.ImageExt)
	if err != nil {
		return nil, fmt.Errorf("store scan: %w", err)
	}

	rec, err := s.recognize(ctx, abs)
	if err != nil {
		if rmErr := s.scans.Remove(rel); rmErr != nil {
			log.Warn("remove scan after failed recognition", zap.String("path", rel), zap.Error(rmErr))
		}
		log.Warn("recognition failed", zap.Error(err))
		return nil, err
	}

	key := BuildIndex(exam)
	rc := Reconcile(rec.Answers, key)
	pct := Percentage(rc.EarnedPoints, exam.Questions)
	if rc.Duplicates > 0 {
		log.Info("duplicate detections collapsed", zap.Int("duplicates", rc.Duplicates))
	}

	res, err := s.store.Record(ctx, Draft{
		ExamID:         exam.ID,
		StudentID:      req.StudentID,
		TotalQuestions: req.TotalQuestions,
		Reconciliation: rc,
		Percentage:     pct,
		ScanImagePath:  rel,
	})
	if err != nil {
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil, err
	}

	log.Info("scan scored",
		zap.Int64("result_id", res.ID),
		zap.Int("raw_score", rc.RawScore),
		zap.Int("earned_points", rc.EarnedPoints),
		zap.Float64("percentage", pct),
		zap.Int("skipped", rc.Skipped),
	)

	out = &Scored{Result: res, Skipped: rc.Skipped, Duplicates: rc.Duplicates}
	if rec.DebugImage != "" {
		out.DebugImageURL = s.scans.URL(rec.DebugImage)
	}
	return out, nil
}

// recognize ограничивает вызов таймаутом; всё, что не логическая ошибка
// распознавателя, считается сбоем процесса.
func (s *Service) recognize(ctx context.Context, imagePath string) (*models.Recognition, error) {
	ctx, cancel := ctxutil.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.rec.Recognize(ctx, imagePath)
	if err != nil {
		if errors.Is(err, ErrRecognitionLogic) || errors.Is(err, ErrRecognitionProcess) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRecognitionProcess, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrRecognitionProcess)
	}
	return rec, nil
}

func validate(req ScoreRequest) error {
	switch {
	case req.ExamID <= 0:
		return fmt.Errorf("%w: exam_id is required", ErrValidation)
	case req.TotalQuestions <= 0:
		return fmt.Errorf("%w: total_questions must be a positive integer", ErrValidation)
	case req.Image == nil:
		return fmt.Errorf("%w: scan_image is required", ErrValidation)
	case req.StudentID != nil && *req.StudentID <= 0:
		return fmt.Errorf("%w: student_id must be positive", ErrValidation)
	}
	return nil
}
