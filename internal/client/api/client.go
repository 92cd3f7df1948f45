// Package api is the client-side wrapper around the server's JSON surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// VerifyResult mirrors the wire shape of POST /api/settings/verify.
type VerifyResult struct {
	IsVerified bool   `json:"isVerified"`
	AccountID  string `json:"accountId"`
	IsPlatform bool   `json:"isPlatform"`
}

// ProvisionedAccount mirrors the wire shape of the create-account endpoint.
type ProvisionedAccount struct {
	AccountID string `json:"id"`
	Email     string `json:"email"`
}

// DashboardSession carries embedded-dashboard material and the set of
// enabled sub-components.
type DashboardSession struct {
	ClientSecret string          `json:"clientSecret"`
	Components   map[string]bool `json:"components"`
}

type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	// noRedirect captures the hosted-onboarding 302 instead of following
	// it into the remote flow.
	noRedirect *http.Client
}

func New(baseURL, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
		noRedirect: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// FetchSettings returns the server's record for the configured user. The
// server answers with empty categories (not 404) for unknown users, so a
// structurally empty result means "never configured".
func (c *Client) FetchSettings(ctx context.Context) (*settings.Record, error) {
	record := settings.New()
	err := c.doJSON(ctx, http.MethodGet, "/api/settings?userId="+url.QueryEscape(c.userID), nil, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveSettings writes the whole record and returns the resolved record the
// server echoed back.
func (c *Client) SaveSettings(ctx context.Context, record settings.Record) (*settings.Record, error) {
	body := map[string]any{"userId": c.userID, "settings": record}
	saved := settings.New()
	if err := c.doJSON(ctx, http.MethodPost, "/api/settings", body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Verify checks a key pair against the payments API via the server.
func (c *Client) Verify(ctx context.Context, publicKey, secretKey string) (*VerifyResult, error) {
	body := map[string]string{"publicKey": publicKey, "secretKey": secretKey, "userId": c.userID}
	var result VerifyResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/settings/verify", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAccountWithEmail provisions (or re-reads) the account mapped to
// email.
func (c *Client) CreateAccountWithEmail(ctx context.Context, email string) (*ProvisionedAccount, error) {
	var account ProvisionedAccount
	err := c.doJSON(ctx, http.MethodPost, "/api/onboarding/create-account-with-email",
		map[string]string{"email": email}, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// HostedRedirectURL asks the server for the hosted-onboarding URL of the
// account without following the redirect.
func (c *Client) HostedRedirectURL(ctx context.Context, accountID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/onboarding/hosted?account_id="+url.QueryEscape(accountID), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		data, _ := io.ReadAll(resp.Body)
		return "", apiError(resp.StatusCode, data)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: redirect without location", common.ErrorInternal)
	}
	return location, nil
}

// EmbeddedOnboardingSession fetches the session secret an embedded
// onboarding component needs.
func (c *Client) EmbeddedOnboardingSession(ctx context.Context, accountID string) (string, error) {
	var result struct {
		ClientSecret string `json:"client_secret"`
	}
	err := c.doJSON(ctx, http.MethodGet,
		"/api/onboarding/embedded?account_id="+url.QueryEscape(accountID), nil, &result)
	if err != nil {
		return "", err
	}
	return result.ClientSecret, nil
}

// EmbeddedDashboardSession fetches embedded-dashboard material plus the set
// of enabled sub-components.
func (c *Client) EmbeddedDashboardSession(ctx context.Context, accountID string) (*DashboardSession, error) {
	var session DashboardSession
	err := c.doJSON(ctx, http.MethodGet,
		"/api/dashboard/embedded?account_id="+url.QueryEscape(accountID), nil, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// apiError turns an error response into the shared taxonomy, keeping the
// server's message.
func apiError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &body)
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}

	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = common.ErrorValidation
	case http.StatusUnauthorized:
		sentinel = common.ErrUpstreamAuth
	case http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case http.StatusConflict:
		sentinel = common.ErrorAlreadyExists
	default:
		sentinel = common.ErrorInternal
	}
	return fmt.Errorf("%w: %s", sentinel, body.Error)
}
