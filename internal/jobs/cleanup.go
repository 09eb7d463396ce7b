package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/omr-grader/internal/logging"
)

type DebugImagePurger interface {
	PurgeDebugImages(ctx context.Context, ttl time.Duration) (int, error)
}

// DebugImageCleanup удаляет отладочные картинки распознавателя старше ttl.
// Сканы не трогает: на них ссылаются результаты.
func DebugImageCleanup(p DebugImagePurger, ttl time.Duration, log *logging.Log) Job {
	return func(ctx context.Context) error {
		n, err := p.PurgeDebugImages(ctx, ttl)
		if n > 0 {
			debugImagesPurged.Add(float64(n))
			log.For(ctx).Info("debug images purged", zap.Int("count", n))
		}
		return err
	}
}
