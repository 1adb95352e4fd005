// AngelaMos | 2026
// handler.go

package casestudy

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/cases", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Generate)
		r.Get("/{caseID}", h.Get)
	})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	study, usage, err := h.service.Generate(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "case study")
		return
	}

	core.Created(w, GenerateResponse{
		Case:  ToCaseResponse(study),
		Usage: usage.Response(),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := core.PageFromRequest(r)

	cases, total, err := h.service.List(r.Context(), middleware.GetAccountID(r.Context()), page)
	if err != nil {
		core.HandleError(w, err, "case study")
		return
	}

	core.Paginated(w, ToCaseResponseList(cases), page.Page, page.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	study, err := h.service.Get(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "caseID"),
	)
	if err != nil {
		core.HandleError(w, err, "case study")
		return
	}

	core.OK(w, ToCaseResponse(study))
}
