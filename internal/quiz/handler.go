// AngelaMos | 2026
// handler.go

package quiz

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
	r.Route("/quizzes", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Generate)
		r.Get("/{quizID}", h.Get)
		r.Get("/{quizID}/attempts", h.ListAttempts)
		r.Post("/{quizID}/attempts", h.SubmitAttempt)
	})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	quiz, usage, err := h.service.Generate(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "quiz")
		return
	}

	core.Created(w, GenerateResponse{
		Quiz:  ToQuizResponse(quiz),
		Usage: usage.Response(),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := core.PageFromRequest(r)

	quizzes, total, err := h.service.List(r.Context(), middleware.GetAccountID(r.Context()), page)
	if err != nil {
		core.HandleError(w, err, "quiz")
		return
	}

	core.Paginated(w, ToQuizResponseList(quizzes), page.Page, page.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Get(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "quizID"),
	)
	if err != nil {
		core.HandleError(w, err, "quiz")
		return
	}

	core.OK(w, ToQuizResponse(quiz))
}

func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req SubmitAttemptRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	attempt, results, err := h.service.SubmitAttempt(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "quizID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "quiz")
		return
	}

	core.Created(w, ToAttemptResponse(attempt, results))
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.ListAttempts(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "quizID"),
	)
	if err != nil {
		core.HandleError(w, err, "quiz")
		return
	}

	core.OK(w, ToAttemptResponseList(attempts))
}
