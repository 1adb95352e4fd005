// AngelaMos | 2026
// dto.go

package billing

import "github.com/carterperez-dev/medprep/internal/metering"

type RedeemCouponRequest struct {
	Code string `json:"code" validate:"required,min=3,max=64"`
}

type SubscriptionResponse struct {
	Plan           string                 `json:"plan"`
	Usage          metering.UsageResponse `json:"usage"`
	BillingEnabled bool                   `json:"billing_enabled"`
	HasCustomer    bool                   `json:"has_customer"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}
