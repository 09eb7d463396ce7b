package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTeacherID_RoundTrip(t *testing.T) {
	ctx := WithTeacherID(context.Background(), 42)
	id, ok := TeacherID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = TeacherID(context.Background())
	assert.False(t, ok)
}

func TestWithDBTimeout_RespectsShorterParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ctx, c2 := WithDBTimeout(parent)
	defer c2()

	dl, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.LessOrEqual(t, time.Until(dl), 100*time.Millisecond)
}

func TestWithTimeout_ZeroMeansNoDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}
