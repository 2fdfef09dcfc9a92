package httpd

import (
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/service"
)

type adminPage struct {
	Analytics *models.AdminAnalytics
	Bars      []service.Bar
}

func (h *Handler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.services.Analytics.Admin(r.Context(), currentSession(r))
	if err != nil {
		h.handleReadError(w, r, err, "/")
		return
	}
	h.page(w, r, "admin_analytics", "Platform analytics", adminPage{
		Analytics: analytics,
		Bars:      service.Bars(analytics.CategoryBreakdown),
	})
}
