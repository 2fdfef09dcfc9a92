package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, event *models.ActivityEvent) error
}

type ActivityStats struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// ActivityWorker публикует события активности в фоне, не задерживая ответ пользователю.
type ActivityWorker struct {
	pool       *Pool
	publisher  Publisher
	timeout    time.Duration
	logger     zerolog.Logger
	stats      ActivityStats
	statsMutex sync.Mutex
	now        func() time.Time
}

func NewActivityWorker(pool *Pool, publisher Publisher, logger zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		pool:      pool,
		publisher: publisher,
		timeout:   5 * time.Second,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *ActivityWorker) Record(eventType models.ActivityType, userID, courseID, objectID int64) {
	event := &models.ActivityEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		CourseID:   courseID,
		ObjectID:   objectID,
		OccurredAt: w.now().UTC(),
	}

	err := w.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		if err := w.publisher.Publish(ctx, event); err != nil {
			w.logger.Error().Err(err).
				Str("event_id", event.ID).
				Str("type", string(event.Type)).
				Msg("Failed to publish activity event")
			w.count(func(s *ActivityStats) { s.Failed++ })
			return
		}
		w.count(func(s *ActivityStats) { s.Published++ })
	})
	if err != nil {
		w.logger.Warn().Err(err).Str("type", string(eventType)).Msg("Activity event dropped")
		w.count(func(s *ActivityStats) { s.Dropped++ })
	}
}

func (w *ActivityWorker) count(fn func(*ActivityStats)) {
	w.statsMutex.Lock()
	fn(&w.stats)
	w.statsMutex.Unlock()
}

func (w *ActivityWorker) Stats() ActivityStats {
	w.statsMutex.Lock()
	defer w.statsMutex.Unlock()
	return w.stats
}
