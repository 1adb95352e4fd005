// AngelaMos | 2026
// handler.go

package activity

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/medprep/internal/core"
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
	r.Route("/activity", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/", h.List)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit")) //nolint:errcheck // zero falls back to default

	records, err := h.service.Recent(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		limit,
	)
	if err != nil {
		core.HandleError(w, err, "activity")
		return
	}

	core.OK(w, ToRecordResponseList(records))
}
