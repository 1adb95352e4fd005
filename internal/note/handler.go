// AngelaMos | 2026
// handler.go

package note

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
	r.Route("/notes", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/generate", h.Generate)
		r.Get("/{noteID}", h.Get)
		r.Put("/{noteID}", h.Update)
		r.Delete("/{noteID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		PageParams: core.PageFromRequest(r),
		Topic:      r.URL.Query().Get("topic"),
		Search:     r.URL.Query().Get("search"),
	}

	notes, total, err := h.service.List(r.Context(), middleware.GetAccountID(r.Context()), params)
	if err != nil {
		core.HandleError(w, err, "note")
		return
	}

	core.Paginated(w, ToNoteResponseList(notes), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	note, err := h.service.Create(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "note")
		return
	}

	core.Created(w, ToNoteResponse(note))
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateNoteRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	note, usage, err := h.service.Generate(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "note")
		return
	}

	core.Created(w, GenerateResponse{
		Note:  ToNoteResponse(note),
		Usage: usage.Response(),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := h.service.Get(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "noteID"),
	)
	if err != nil {
		core.HandleError(w, err, "note")
		return
	}

	core.OK(w, ToNoteResponse(note))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	note, err := h.service.Update(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "noteID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "note")
		return
	}

	core.OK(w, ToNoteResponse(note))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "noteID"),
	)
	if err != nil {
		core.HandleError(w, err, "note")
		return
	}

	core.NoContent(w)
}
