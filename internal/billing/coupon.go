// AngelaMos | 2026
// coupon.go

package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/medprep/internal/core"
)

type Coupon struct {
	ID             string    `db:"id"`
	Code           string    `db:"code"`
	Active         bool      `db:"active"`
	MaxRedemptions *int      `db:"max_redemptions"`
	Redemptions    int       `db:"redemptions"`
	CreatedAt      time.Time `db:"created_at"`
}

type CouponRepository interface {
	// Redeem consumes one use of an active coupon. An unknown, inactive or
	// exhausted code is not found.
	Redeem(ctx context.Context, code string) (*Coupon, error)
}

type couponRepository struct {
	db core.DBTX
}

func NewCouponRepository(db core.DBTX) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Redeem(ctx context.Context, code string) (*Coupon, error) {
	query := `
		UPDATE coupons
		SET redemptions = redemptions + 1
		WHERE code = $1
		  AND active
		  AND (max_redemptions IS NULL OR redemptions < max_redemptions)
		RETURNING id, code, active, max_redemptions, redemptions, created_at`

	var coupon Coupon
	err := r.db.GetContext(ctx, &coupon, query, normalizeCode(code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("redeem coupon: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redeem coupon: %w", err)
	}

	return &coupon, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
