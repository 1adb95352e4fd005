// AngelaMos | 2026
// entity.go

package account

import (
	"time"

	"github.com/carterperez-dev/medprep/internal/metering"
)

type Account struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	PasswordHash     string     `db:"password_hash"`
	Name             string     `db:"name"`
	Role             string     `db:"role"`
	Plan             string     `db:"plan"`
	TokensUsed       int        `db:"tokens_used"`
	TokenLimit       int        `db:"token_limit"`
	StripeCustomerID *string    `db:"stripe_customer_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a *Account) Usage() metering.Usage {
	return metering.Usage{
		Plan:     a.Plan,
		Consumed: a.TokensUsed,
		Limit:    a.TokenLimit,
	}
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	PlanTrial      = metering.PlanTrial
	PlanSubscribed = metering.PlanSubscribed
)
