// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/medprep/internal/auth"
	"github.com/carterperez-dev/medprep/internal/core"
)

type Service struct {
	repo       Repository
	trialLimit int
}

func NewService(repo Repository, trialLimit int) *Service {
	return &Service{repo: repo, trialLimit: trialLimit}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.AccountInfo, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toAccountInfo(account), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.AccountInfo, error) {
	account, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toAccountInfo(account), nil
}

// Create opens a trial account with the configured quota.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.AccountInfo, error) {
	account := &Account{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleUser,
		Plan:         PlanTrial,
		TokenLimit:   s.trialLimit,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	return toAccountInfo(account), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	accountID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, accountID, passwordHash)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateAccount(
	ctx context.Context,
	id string,
	req UpdateAccountRequest,
) (*Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *Service) UpdateRole(
	ctx context.Context,
	id, role string,
) (*Account, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.Role = role

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *Service) UpdatePlan(
	ctx context.Context,
	id, plan string,
) (*Account, error) {
	if plan != PlanTrial && plan != PlanSubscribed {
		return nil, fmt.Errorf(
			"update plan: invalid plan %q: %w",
			plan,
			core.ErrInvalidInput,
		)
	}

	return s.repo.SetPlan(ctx, id, plan)
}

func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) ListAccounts(
	ctx context.Context,
	params ListParams,
) ([]Account, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, accountID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	accountID string,
	req UpdateAccountRequest,
) (*Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	return s.UpdateAccount(ctx, accountID, req)
}

func (s *Service) DeleteMe(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}

	return s.repo.SoftDelete(ctx, accountID)
}

// CanDelete lets admins delete non-admin accounts and anyone delete their
// own.
func (s *Service) CanDelete(
	ctx context.Context,
	requesterID, targetID string,
) error {
	if requesterID == targetID {
		return nil
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}

	if !requester.IsAdmin() {
		return fmt.Errorf("delete account: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin accounts: %w", core.ErrForbidden)
	}

	return nil
}

func toAccountInfo(a *Account) *auth.AccountInfo {
	return &auth.AccountInfo{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		Plan:         a.Plan,
	}
}

var _ auth.AccountProvider = (*Service)(nil)
