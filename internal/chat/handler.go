// AngelaMos | 2026
// handler.go

package chat

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
	r.Route("/chat/threads", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListThreads)
		r.Post("/", h.CreateThread)
		r.Get("/{threadID}", h.GetThread)
		r.Put("/{threadID}", h.RenameThread)
		r.Delete("/{threadID}", h.DeleteThread)
		r.Get("/{threadID}/messages", h.ListMessages)
		r.Post("/{threadID}/messages", h.SendMessage)
	})
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	page := core.PageFromRequest(r)

	threads, total, err := h.service.ListThreads(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		page,
	)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.Paginated(w, ToThreadResponseList(threads), page.Page, page.PageSize, total)
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req CreateThreadRequest
	if r.ContentLength != 0 && !core.Bind(w, r, &req, h.validator) {
		return
	}

	thread, err := h.service.CreateThread(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.Created(w, ToThreadResponse(thread))
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	thread, messages, err := h.service.GetThread(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "threadID"),
	)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.OK(w, ThreadDetailResponse{
		ThreadResponse: ToThreadResponse(thread),
		Messages:       ToMessageResponseList(messages),
	})
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	_, messages, err := h.service.GetThread(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "threadID"),
	)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.OK(w, ToMessageResponseList(messages))
}

func (h *Handler) RenameThread(w http.ResponseWriter, r *http.Request) {
	var req RenameThreadRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	thread, err := h.service.RenameThread(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "threadID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.OK(w, ToThreadResponse(thread))
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteThread(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "threadID"),
	)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.NoContent(w)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	reply, err := h.service.SendMessage(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "threadID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "thread")
		return
	}

	core.OK(w, ToReplyResponse(reply))
}
