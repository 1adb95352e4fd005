// AngelaMos | 2026
// handler.go

package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/dashboard", h.Overview)
		r.Get("/usage", h.Usage)
	})
}

type OverviewResponse struct {
	Usage          metering.UsageResponse    `json:"usage"`
	RecentActivity []activity.RecordResponse `json:"recent_activity"`
	ActivityCounts map[activity.Category]int `json:"activity_counts"`
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, OverviewResponse{
		Usage:          overview.Usage.Response(),
		RecentActivity: activity.ToRecordResponseList(overview.Recent),
		ActivityCounts: overview.Counts,
	})
}

func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.service.Usage(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, usage.Response())
}
