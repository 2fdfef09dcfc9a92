package httpd

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
)

type reviewPage struct {
	*service.ReviewPage
	Base string
}

func reviewURL(assignmentID int64) string {
	return fmt.Sprintf("/assignments/%d/review", assignmentID)
}

func (h *Handler) ReviewSubmissions(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := urlID(r, "assignmentID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	page, err := h.services.Review.Submissions(r.Context(), currentSession(r), assignmentID)
	if err != nil {
		h.handleReadError(w, r, err, "/manage-courses")
		return
	}
	h.page(w, r, "review", "Review: "+page.Assignment.Title, reviewPage{ReviewPage: page, Base: reviewURL(assignmentID)})
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok1 := urlID(r, "assignmentID")
	submissionID, ok2 := urlID(r, "submissionID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("%s#submission-%d", reviewURL(assignmentID), submissionID)
	if err := parseForm(r); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	in := models.GradeInput{
		Feedback: r.PostFormValue("feedback"),
		Status:   models.SubmissionStatus(r.PostFormValue("status")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("grade")); raw != "" {
		grade, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(grade) || math.IsInf(grade, 0) {
			h.handleActionError(w, r, models.NewValidationError("", models.FieldError{
				Field: "grade", Message: "Grade must be a number.",
			}), back)
			return
		}
		in.Grade = &grade
	}

	_, err := h.once(r, "submission.grade", submissionID, func() (interface{}, error) {
		return h.services.Review.Grade(r.Context(), currentSession(r), assignmentID, submissionID, in)
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}
	h.flash(r, workspace.FlashSuccess, "Grade saved.")
	redirect(w, r, back)
}

func (h *Handler) SetSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok1 := urlID(r, "assignmentID")
	submissionID, ok2 := urlID(r, "submissionID")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	back := fmt.Sprintf("%s#submission-%d", reviewURL(assignmentID), submissionID)

	_, err := h.once(r, "submission.status", submissionID, func() (interface{}, error) {
		return h.services.Review.SetStatus(r.Context(), currentSession(r), submissionID, r.FormValue("status"))
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}
	h.flash(r, workspace.FlashSuccess, "Submission status updated.")
	redirect(w, r, back)
}
