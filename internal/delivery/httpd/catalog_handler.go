package httpd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
	"github.com/Aidensmirk/online-learning-platform/internal/workspace"
	"github.com/rs/zerolog"
)

const featuredCourses = 6

type homePage struct {
	Featured []models.Course
}

type catalogPage struct {
	Courses    []models.Course
	Categories []string
	Search     string
	Category   string
}

type detailsPage struct {
	Course  *models.Course
	Lessons int
}

// Home показывает главную даже без API: список курсов на ней необязателен.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	courses, err := h.services.Catalog.Browse(r.Context(), currentSession(r), models.CourseFilter{})
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load featured courses")
	}
	if len(courses) > featuredCourses {
		courses = courses[:featuredCourses]
	}
	h.page(w, r, "home", "Learn anything", homePage{Featured: courses})
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, "about", "About", nil)
}

// AllCourses - каталог с поиском и фильтром по категории; категории берутся из полного списка.
func (h *Handler) AllCourses(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	filter := models.CourseFilter{
		Search:   r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}

	all, err := h.services.Catalog.Browse(r.Context(), sess, models.CourseFilter{})
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}

	courses := all
	if filter.Search != "" || (filter.Category != "" && filter.Category != service.AllCategories) {
		courses, err = h.services.Catalog.Browse(r.Context(), sess, filter)
		if err != nil {
			h.handleReadError(w, r, err, "/")
			return
		}
	}

	category := filter.Category
	if category == "" {
		category = service.AllCategories
	}
	h.page(w, r, "all_courses", "All courses", catalogPage{
		Courses:    courses,
		Categories: service.Categories(all),
		Search:     filter.Search,
		Category:   category,
	})
}

func (h *Handler) CourseDetails(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	course, err := h.services.Catalog.Details(r.Context(), currentSession(r), courseID)
	if err != nil {
		h.handleReadError(w, r, err, "/all-courses")
		return
	}
	h.page(w, r, "course_details", course.Title, detailsPage{Course: course, Lessons: len(course.Lessons())})
}

func (h *Handler) StudentDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.services.Catalog.Dashboard(r.Context(), currentSession(r))
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}
	h.page(w, r, "student_dashboard", "Dashboard", dashboard)
}

func (h *Handler) MyCourses(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.services.Catalog.Enrollments(r.Context(), currentSession(r))
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}
	h.page(w, r, "my_courses", "My courses", enrollments)
}

func (h *Handler) Wishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.services.Catalog.Wishlist(r.Context(), currentSession(r))
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}
	h.page(w, r, "wishlist", "Wishlist", items)
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	player := fmt.Sprintf("/course-player/%d", courseID)

	_, err := h.once(r, "enroll", courseID, func() (interface{}, error) {
		return h.services.Catalog.Enroll(r.Context(), currentSession(r), courseID)
	})
	switch {
	case errors.Is(err, service.ErrAlreadyEnrolled):
		h.flash(r, workspace.FlashInfo, "You are already enrolled in this course.")
	case err != nil:
		h.handleActionError(w, r, err, fmt.Sprintf("/course-details/%d", courseID))
		return
	default:
		h.flash(r, workspace.FlashSuccess, "You are enrolled. Enjoy the course!")
	}
	redirect(w, r, player)
}

func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	h.wishlist(w, r, true)
}

func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	h.wishlist(w, r, false)
}

func (h *Handler) wishlist(w http.ResponseWriter, r *http.Request, add bool) {
	courseID, ok := urlID(r, "courseID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := safeBack(r, fmt.Sprintf("/course-details/%d", courseID))

	action, message := "wishlist.remove", "Removed from your wishlist."
	if add {
		action, message = "wishlist.add", "Added to your wishlist."
	}

	_, err := h.once(r, action, courseID, func() (interface{}, error) {
		if add {
			return nil, h.services.Catalog.AddToWishlist(r.Context(), currentSession(r), courseID)
		}
		return nil, h.services.Catalog.RemoveFromWishlist(r.Context(), currentSession(r), courseID)
	})
	if err != nil {
		h.handleActionError(w, r, err, back)
		return
	}

	h.flash(r, workspace.FlashSuccess, message)
	redirect(w, r, back)
}
