// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/medprep/internal/account"
	"github.com/carterperez-dev/medprep/internal/core"
)

type Service struct {
	accounts account.Repository
	tx       core.Transactor
	gateway  Gateway
	logger   *slog.Logger
}

// NewService accepts a nil gateway; checkout, portal and webhooks then
// report billing as unavailable while coupons keep working.
func NewService(
	db core.DBTX,
	tx core.Transactor,
	gateway Gateway,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		accounts: account.NewRepository(db),
		tx:       tx,
		gateway:  gateway,
		logger:   logger,
	}
}

func (s *Service) Subscription(
	ctx context.Context,
	accountID string,
) (*SubscriptionResponse, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &SubscriptionResponse{
		Plan:           acct.Plan,
		Usage:          acct.Usage().Response(),
		BillingEnabled: s.gateway != nil,
		HasCustomer:    acct.StripeCustomerID != nil && *acct.StripeCustomerID != "",
	}, nil
}

// RedeemCoupon consumes the coupon and upgrades the account in one
// transaction.
func (s *Service) RedeemCoupon(
	ctx context.Context,
	accountID string,
	req RedeemCouponRequest,
) (*account.Account, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Plan == account.PlanSubscribed {
		return nil, fmt.Errorf("account is already subscribed: %w", core.ErrInvalidInput)
	}

	var upgraded *account.Account
	err = s.tx.Transact(ctx, func(tx core.DBTX) error {
		coupon, err := NewCouponRepository(tx).Redeem(ctx, req.Code)
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("coupon is invalid or fully redeemed: %w", core.ErrInvalidInput)
		}
		if err != nil {
			return err
		}

		upgraded, err = account.NewRepository(tx).SetPlan(ctx, accountID, account.PlanSubscribed)
		if err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "coupon redeemed",
			"account_id", accountID,
			"coupon_id", coupon.ID,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return upgraded, nil
}

func (s *Service) Checkout(ctx context.Context, accountID string) (string, error) {
	if s.gateway == nil {
		return "", fmt.Errorf("checkout: %w", core.ErrBillingUnavailable)
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acct.Plan == account.PlanSubscribed {
		return "", fmt.Errorf("account is already subscribed: %w", core.ErrInvalidInput)
	}

	customerID, err := s.ensureCustomer(ctx, acct)
	if err != nil {
		return "", err
	}

	return s.gateway.CheckoutURL(ctx, customerID, acct.ID)
}

func (s *Service) Portal(ctx context.Context, accountID string) (string, error) {
	if s.gateway == nil {
		return "", fmt.Errorf("portal: %w", core.ErrBillingUnavailable)
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acct.StripeCustomerID == nil || *acct.StripeCustomerID == "" {
		return "", fmt.Errorf("no billing customer for account: %w", core.ErrInvalidInput)
	}

	return s.gateway.PortalURL(ctx, *acct.StripeCustomerID)
}

// Cancel drops the account back to trial. The counter is kept, so a
// downgraded account may be over its trial limit immediately.
func (s *Service) Cancel(ctx context.Context, accountID string) (*account.Account, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Plan != account.PlanSubscribed {
		return nil, fmt.Errorf("account is not subscribed: %w", core.ErrInvalidInput)
	}

	return s.accounts.SetPlan(ctx, accountID, account.PlanTrial)
}

func (s *Service) HandleWebhook(
	ctx context.Context,
	payload []byte,
	signature string,
) error {
	if s.gateway == nil {
		return fmt.Errorf("webhook: %w", core.ErrBillingUnavailable)
	}

	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return err
	}

	var plan string
	switch event.Type {
	case EventCheckoutCompleted:
		plan = account.PlanSubscribed
	case EventSubscriptionDeleted:
		plan = account.PlanTrial
	default:
		return nil
	}

	acct, err := s.resolveAccount(ctx, event)
	if err != nil {
		return err
	}

	if acct.Plan == plan {
		return nil
	}

	if _, err := s.accounts.SetPlan(ctx, acct.ID, plan); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "plan changed by billing event",
		"account_id", acct.ID,
		"event", event.Type,
		"plan", plan,
	)
	return nil
}

func (s *Service) resolveAccount(ctx context.Context, event *Event) (*account.Account, error) {
	if event.CustomerID != "" {
		acct, err := s.accounts.GetByStripeCustomerID(ctx, event.CustomerID)
		if err == nil || !errors.Is(err, core.ErrNotFound) || event.AccountID == "" {
			return acct, err
		}
	}

	if event.AccountID == "" {
		return nil, fmt.Errorf("billing event without customer: %w", core.ErrInvalidInput)
	}

	return s.accounts.GetByID(ctx, event.AccountID)
}

func (s *Service) ensureCustomer(ctx context.Context, acct *account.Account) (string, error) {
	if acct.StripeCustomerID != nil && *acct.StripeCustomerID != "" {
		return *acct.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, acct.ID, acct.Email)
	if err != nil {
		return "", err
	}

	if err := s.accounts.SetStripeCustomerID(ctx, acct.ID, customerID); err != nil {
		return "", err
	}

	return customerID, nil
}
