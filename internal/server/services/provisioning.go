package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/logging"
	"github.com/aleksvolk/connectboard/internal/server/models"
	"github.com/aleksvolk/connectboard/internal/server/payments"
	settingsrepo "github.com/aleksvolk/connectboard/internal/server/repositories/settings"
	usersrepo "github.com/aleksvolk/connectboard/internal/server/repositories/users"
	"github.com/aleksvolk/connectboard/internal/settings"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// VerificationResult is the outcome of a credential check against the
// remote payments API.
type VerificationResult struct {
	IsVerified bool
	AccountID  string
	IsPlatform bool
}

// ProvisioningService is the account provisioning gateway: it turns emails
// into durable account mappings (idempotently), verifies credentials and
// requests hosted/embedded session material. All remote payments calls made
// by the server go through here.
type ProvisioningService struct {
	users          usersrepo.Repository
	settings       settingsrepo.Repository
	payments       payments.Client
	baseURL        string
	defaultCountry string
	logger         logging.Logger
}

func NewProvisioningService(
	users usersrepo.Repository,
	settingsRepo settingsrepo.Repository,
	paymentsClient payments.Client,
	baseURL, defaultCountry string,
	logger logging.Logger,
) *ProvisioningService {
	return &ProvisioningService{
		users:          users,
		settings:       settingsRepo,
		payments:       paymentsClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultCountry: defaultCountry,
		logger:         logger,
	}
}

// CreateOrGetAccountByEmail returns the existing mapping for email without
// any remote call, or creates a remote account and records the mapping.
// At most one remote account is ever created per unique email.
//
// If the mapping write fails after the remote account was created, the
// error wraps common.ErrPartialProvisioning: the remote side effect
// happened and a blind retry would create a second remote account.
func (s *ProvisioningService) CreateOrGetAccountByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if !emailRx.MatchString(email) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidEmail, email)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Debug(ctx, "reusing existing account mapping", "email", email, "account_id", existing.AccountID)
		return existing, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	secretKey, record, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.payments.CreateAccount(ctx, secretKey, record.AccountType(), s.country(record), email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &models.User{Email: email, AccountID: account.ID})
	if err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", common.ErrPartialProvisioning, account.ID, err)
	}

	s.logger.Info(ctx, "account provisioned", "email", email, "account_id", account.ID)
	return user, nil
}

// VerifyCredentials checks the key pair against the remote API. It never
// propagates remote errors: any failure yields IsVerified=false.
func (s *ProvisioningService) VerifyCredentials(ctx context.Context, publicKey, secretKey string) VerificationResult {
	if publicKey == "" || secretKey == "" {
		return VerificationResult{}
	}

	account, err := s.payments.RetrieveAccount(ctx, secretKey)
	if err != nil || account.ID == "" {
		s.logger.Warn(ctx, "credential verification failed", "error", err)
		return VerificationResult{}
	}

	result := VerificationResult{IsVerified: true, AccountID: account.ID}

	// a visible sub-account means these are platform credentials
	accounts, err := s.payments.ListAccounts(ctx, secretKey, 100)
	if err != nil {
		s.logger.Warn(ctx, "listing sub-accounts failed", "error", err)
		return result
	}
	result.IsPlatform = len(accounts) > 0
	return result
}

// CreateHostedRedirect requests a single-use hosted-onboarding URL for the
// account. The return and refresh callbacks carry the account id in their
// path so the receiving page can tell completion from interruption.
func (s *ProvisioningService) CreateHostedRedirect(ctx context.Context, accountID string) (string, error) {
	if accountID == "" {
		return "", fmt.Errorf("%w: account id is required", common.ErrorValidation)
	}

	secretKey, _, err := s.credentials(ctx)
	if err != nil {
		return "", err
	}

	link, err := s.payments.CreateAccountLink(ctx, secretKey, accountID,
		s.baseURL+"/return/"+accountID,
		s.baseURL+"/refresh/"+accountID)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// CreateEmbeddedSession requests embedded-session material for the account
// with the named components enabled.
func (s *ProvisioningService) CreateEmbeddedSession(ctx context.Context, accountID string, components []string) (*payments.AccountSession, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", common.ErrorValidation)
	}

	secretKey, _, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	return s.payments.CreateAccountSession(ctx, secretKey, accountID, components)
}

// credentials loads the stored settings of the default user and extracts
// the secret key configured by the operator.
func (s *ProvisioningService) credentials(ctx context.Context) (string, settings.Record, error) {
	record, err := s.settings.Get(ctx, DefaultUserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", settings.Record{}, fmt.Errorf("%w: no credentials configured", common.ErrUpstreamAuth)
		}
		return "", settings.Record{}, err
	}

	secretKey := record.GeneralSettings().AuthSecretKey
	if secretKey == "" {
		return "", settings.Record{}, fmt.Errorf("%w: no secret key configured", common.ErrUpstreamAuth)
	}
	return secretKey, *record, nil
}

func (s *ProvisioningService) country(record settings.Record) string {
	if c := record.GeneralSettings().ConnectedAccountCountry; c != "" {
		return c
	}
	return s.defaultCountry
}
