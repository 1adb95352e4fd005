// AngelaMos | 2026
// handler.go

package account

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
	r.Route("/accounts", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetMe(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	account, err := h.service.UpdateMe(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMe(r.Context(), middleware.GetAccountID(r.Context())); err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.NoContent(w)
}

// RegisterAdminRoutes registers admin-only account management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/accounts", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAccounts)
		r.Get("/{accountID}", h.GetAccount)
		r.Put("/{accountID}", h.UpdateAccount)
		r.Put("/{accountID}/role", h.UpdateRole)
		r.Put("/{accountID}/plan", h.UpdatePlan)
		r.Delete("/{accountID}", h.DeleteAccount)
	})
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		PageParams: core.PageFromRequest(r),
		Search:     r.URL.Query().Get("search"),
		Role:       r.URL.Query().Get("role"),
		Plan:       r.URL.Query().Get("plan"),
	}

	accounts, total, err := h.service.ListAccounts(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToAccountResponseList(accounts),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), chi.URLParam(r, "accountID"), req)
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	account, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "accountID"), req.Role)
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlanRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	account, err := h.service.UpdatePlan(r.Context(), chi.URLParam(r, "accountID"), req.Plan)
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, ToAccountResponse(account))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetAccountID(r.Context())
	targetID := chi.URLParam(r, "accountID")

	if err := h.service.CanDelete(r.Context(), requesterID, targetID); err != nil {
		core.HandleError(w, err, "account")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), targetID); err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.NoContent(w)
}
