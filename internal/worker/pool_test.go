package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryAcceptedTask(t *testing.T) {
	pool := NewPool(4, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))

	var done int32
	for i := 0; i < 25; i++ {
		require.NoError(t, pool.Submit(func() { atomic.AddInt32(&done, 1) }))
	}

	require.NoError(t, pool.Stop())
	assert.Equal(t, int32(25), atomic.LoadInt32(&done))
}

func TestPool_RecoversFromPanic(t *testing.T) {
	pool := NewPool(1, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))

	var ran bool
	require.NoError(t, pool.Submit(func() { panic("boom") }))
	require.NoError(t, pool.Submit(func() { ran = true }))

	require.NoError(t, pool.Stop())
	assert.True(t, ran)
	assert.Zero(t, pool.Stats().BusyWorkers)
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(2, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop())
	require.NoError(t, pool.Stop())

	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrPoolStopped)
	assert.ErrorIs(t, pool.Start(context.Background()), ErrPoolStopped)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestActivityWorker_PublishesThroughPool(t *testing.T) {
	pool := NewPool(2, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))

	publisher := &recordingPublisher{}
	w := NewActivityWorker(pool, publisher, zerolog.Nop())

	w.Record(models.ActivityLessonCompleted, 7, 3, 11)
	w.Record(models.ActivityQuizSubmitted, 7, 3, 12)
	require.NoError(t, pool.Stop())

	require.Len(t, publisher.events, 2)
	for _, e := range publisher.events {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, int64(7), e.UserID)
		assert.Equal(t, int64(3), e.CourseID)
	}
	assert.Equal(t, ActivityStats{Published: 2}, w.Stats())
}

func TestActivityWorker_CountsFailuresAndDrops(t *testing.T) {
	pool := NewPool(1, zerolog.Nop())
	require.NoError(t, pool.Start(context.Background()))

	w := NewActivityWorker(pool, &recordingPublisher{err: errors.New("broker down")}, zerolog.Nop())
	w.Record(models.ActivityCourseEnrolled, 1, 2, 0)
	require.NoError(t, pool.Stop())

	w.Record(models.ActivityCourseEnrolled, 1, 2, 0)
	assert.Equal(t, ActivityStats{Failed: 1, Dropped: 1}, w.Stats())
}
