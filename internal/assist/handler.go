// AngelaMos | 2026
// handler.go

package assist

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
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
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/diagnosis", h.Diagnose)
		r.Post("/mnemonics", h.Mnemonic)
		r.Post("/drugs/lookup", h.LookupDrug)
	})
}

func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnosisRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}
	respond(w, r, "diagnosis", func(ctx context.Context, accountID string) (*Diagnosis, metering.Usage, error) {
		return h.service.Diagnose(ctx, accountID, req)
	})
}

func (h *Handler) Mnemonic(w http.ResponseWriter, r *http.Request) {
	var req MnemonicRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}
	respond(w, r, "mnemonic", func(ctx context.Context, accountID string) (*Mnemonic, metering.Usage, error) {
		return h.service.Mnemonic(ctx, accountID, req)
	})
}

func (h *Handler) LookupDrug(w http.ResponseWriter, r *http.Request) {
	var req DrugLookupRequest
	if !core.Bind(w, r, &req, h.validator) {
		return
	}
	respond(w, r, "drug", func(ctx context.Context, accountID string) (*Drug, metering.Usage, error) {
		return h.service.LookupDrug(ctx, accountID, req)
	})
}

func respond[T any](
	w http.ResponseWriter,
	r *http.Request,
	resource string,
	call func(ctx context.Context, accountID string) (*T, metering.Usage, error),
) {
	out, usage, err := call(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		core.HandleError(w, err, resource)
		return
	}

	core.OK(w, Result[T]{Result: *out, Usage: usage.Response()})
}
