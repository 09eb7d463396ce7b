package recognizer

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/Spok95/omr-grader/internal/models"
)

type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (*models.Recognition, error)
}

// Limited ограничивает число одновременных распознаваний: каждый вызов —
// отдельный тяжёлый процесс. Ожидание слота входит в таймаут вызова.
type Limited struct {
	next Recognizer
	sem  *semaphore.Weighted
}

func NewLimited(next Recognizer, n int) *Limited {
	if n < 1 {
		n = 1
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (l *Limited) Recognize(ctx context.Context, imagePath string) (*models.Recognition, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for recognizer slot: %v", ErrProcess, err)
	}
	defer l.sem.Release(1)
	return l.next.Recognize(ctx, imagePath)
}
