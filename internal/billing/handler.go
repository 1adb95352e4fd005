// AngelaMos | 2026
// handler.go

package billing

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/medprep/internal/account"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

const maxWebhookBytes = 64 << 10

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
	r.Route("/subscription", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Get)
		r.Post("/coupon", h.RedeemCoupon)
		r.Post("/checkout", h.Checkout)
		r.Post("/portal", h.Portal)
		r.Post("/cancel", h.Cancel)
	})

	r.Post("/billing/webhook", h.Webhook)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Subscription(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, sub)
}

func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	var req RedeemCouponRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}

	acct, err := h.service.RedeemCoupon(r.Context(), middleware.GetAccountID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, account.ToAccountResponse(acct))
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.Checkout(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, RedirectResponse{URL: url})
}

func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.Portal(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, RedirectResponse{URL: url})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	acct, err := h.service.Cancel(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, account.ToAccountResponse(acct))
}

// Webhook is unauthenticated; the payload signature is the credential.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		core.BadRequest(w, "invalid payload")
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, map[string]string{"status": "ok"})
}
