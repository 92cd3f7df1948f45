// Package payments is the boundary to the remote payments-connect API. The
// rest of the server treats it as an opaque service reachable through the
// small set of calls below; Client is satisfied by the real HTTP client and
// by test fakes.
package payments

import "context"

// Account is a connected account as reported by the remote API.
type Account struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Country string `json:"country"`
	Email   string `json:"email"`
}

// AccountLink carries a single-use hosted-onboarding URL.
type AccountLink struct {
	URL string `json:"url"`
}

// AccountSession carries the material an embedded component needs plus the
// set of sub-components the remote side enabled for it.
type AccountSession struct {
	ClientSecret string          `json:"client_secret"`
	Components   map[string]bool `json:"components"`
}

// Component names used when requesting account sessions.
const (
	ComponentAccountOnboarding = "account_onboarding"
	ComponentPayments          = "payments"
	ComponentPayouts           = "payouts"
	ComponentBalances          = "balances"
)

// Client is the remote payments API. Credentials are per-call because the
// operator configures them at runtime in the settings record, not per
// process.
type Client interface {
	// CreateAccount creates a new connected account of the given type in
	// the given country.
	CreateAccount(ctx context.Context, secretKey, accountType, country, email string) (*Account, error)

	// CreateAccountLink requests a single-use hosted-onboarding URL for the
	// account, with the given return and refresh callback URLs.
	CreateAccountLink(ctx context.Context, secretKey, accountID, returnURL, refreshURL string) (*AccountLink, error)

	// CreateAccountSession requests embedded-session material for the
	// account with the named components enabled.
	CreateAccountSession(ctx context.Context, secretKey, accountID string, components []string) (*AccountSession, error)

	// RetrieveAccount returns the account the credentials belong to.
	RetrieveAccount(ctx context.Context, secretKey string) (*Account, error)

	// ListAccounts returns up to limit connected accounts visible to the
	// credentials.
	ListAccounts(ctx context.Context, secretKey string, limit int) ([]Account, error)
}
