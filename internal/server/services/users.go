package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/server/models"
	usersrepo "github.com/aleksvolk/connectboard/internal/server/repositories/users"
)

// UsersService exposes CRUD over the account mappings with uniqueness
// checks surfaced as common.ErrorAlreadyExists.
type UsersService struct {
	repo usersrepo.Repository
}

func NewUsersService(repo usersrepo.Repository) *UsersService {
	return &UsersService{repo: repo}
}

func (s *UsersService) GetAll(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UsersService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UsersService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UsersService) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	return s.repo.GetByAccountID(ctx, accountID)
}

func (s *UsersService) Create(ctx context.Context, email, accountID string) (*models.User, error) {
	if email == "" || accountID == "" {
		return nil, fmt.Errorf("%w: email and account id are required", common.ErrorValidation)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email", common.ErrorAlreadyExists)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByAccountID(ctx, accountID); err == nil {
		return nil, fmt.Errorf("%w: account id", common.ErrorAlreadyExists)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return s.repo.Create(ctx, &models.User{Email: email, AccountID: accountID})
}

// Update changes the email and/or account id of an existing mapping. Empty
// arguments keep the current value. This is the repair path for stale
// remote identifiers.
func (s *UsersService) Update(ctx context.Context, id int64, email, accountID string) (*models.User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email == "" {
		email = existing.Email
	}
	if accountID == "" {
		accountID = existing.AccountID
	}

	if email != existing.Email {
		if _, err := s.repo.GetByEmail(ctx, email); err == nil {
			return nil, fmt.Errorf("%w: email", common.ErrorAlreadyExists)
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
	}
	if accountID != existing.AccountID {
		if _, err := s.repo.GetByAccountID(ctx, accountID); err == nil {
			return nil, fmt.Errorf("%w: account id", common.ErrorAlreadyExists)
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
	}

	return s.repo.Update(ctx, &models.User{ID: id, Email: email, AccountID: accountID})
}

func (s *UsersService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}
