// AngelaMos | 2026
// dto.go

package account

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/metering"
)

type UpdateAccountRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdatePlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=trial subscribed"`
}

type AccountResponse struct {
	ID        string                 `json:"id"`
	Email     string                 `json:"email"`
	Name      string                 `json:"name"`
	Role      string                 `json:"role"`
	Plan      string                 `json:"plan"`
	Usage     metering.UsageResponse `json:"usage"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type ListParams struct {
	core.PageParams
	Search string
	Role   string
	Plan   string
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      a.Role,
		Plan:      a.Plan,
		Usage:     a.Usage().Response(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func ToAccountResponseList(accounts []Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[i]))
	}
	return responses
}
