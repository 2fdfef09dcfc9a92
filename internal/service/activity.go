package service

import (
	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/worker"
)

// ActivityRecorder принимает события активности; публикация идет в фоне.
type ActivityRecorder interface {
	Record(eventType models.ActivityType, userID, courseID, objectID int64)
}

// TaskRunner - фоновые задачи без результата (пул воркеров).
type TaskRunner interface {
	Submit(task worker.Task) error
}

type nopRecorder struct{}

func (nopRecorder) Record(models.ActivityType, int64, int64, int64) {}

func NopRecorder() ActivityRecorder {
	return nopRecorder{}
}

func userID(u *models.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
