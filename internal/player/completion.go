package player

import (
	"sort"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
)

type CompletionSet map[int64]struct{}

func NewCompletionSet(enrollment *models.Enrollment) CompletionSet {
	set := CompletionSet{}
	if enrollment == nil {
		return set
	}
	for _, p := range enrollment.LessonProgress {
		if p.Lesson != nil {
			set[p.Lesson.ID] = struct{}{}
		}
	}
	return set
}

func (c CompletionSet) Has(lessonID int64) bool {
	_, ok := c[lessonID]
	return ok
}

func (c CompletionSet) IDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c CompletionSet) Clone() CompletionSet {
	out := make(CompletionSet, len(c))
	for id := range c {
		out[id] = struct{}{}
	}
	return out
}

// CanSubmitAssignment: своей работы еще нет, либо задание разрешает пересдачу.
func CanSubmitAssignment(assignment models.Assignment, existing *models.AssignmentSubmission) bool {
	return existing == nil || assignment.AllowResubmission
}
