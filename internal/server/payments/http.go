package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aleksvolk/connectboard/internal/common"
)

// DefaultBaseURL is the production endpoint of the payments API. Tests and
// offline demo runs point the client at a stub backend instead.
const DefaultBaseURL = "https://api.stripe.com"

// HTTPClient speaks the payments REST surface: form-encoded requests,
// JSON responses, bearer authentication with the per-record secret key.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) CreateAccount(ctx context.Context, secretKey, accountType, country, email string) (*Account, error) {
	form := url.Values{}
	form.Set("type", accountType)
	form.Set("country", country)
	if email != "" {
		form.Set("email", email)
	}

	var account Account
	if err := c.do(ctx, secretKey, http.MethodPost, "/v1/accounts", form, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *HTTPClient) CreateAccountLink(ctx context.Context, secretKey, accountID, returnURL, refreshURL string) (*AccountLink, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("return_url", returnURL)
	form.Set("refresh_url", refreshURL)
	form.Set("type", "account_onboarding")

	var link AccountLink
	if err := c.do(ctx, secretKey, http.MethodPost, "/v1/account_links", form, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *HTTPClient) CreateAccountSession(ctx context.Context, secretKey, accountID string, components []string) (*AccountSession, error) {
	form := url.Values{}
	form.Set("account", accountID)
	for _, component := range components {
		form.Set(fmt.Sprintf("components[%s][enabled]", component), "true")
	}

	// the wire format reports per-component enablement as nested objects
	var raw struct {
		ClientSecret string `json:"client_secret"`
		Components   map[string]struct {
			Enabled bool `json:"enabled"`
		} `json:"components"`
	}
	if err := c.do(ctx, secretKey, http.MethodPost, "/v1/account_sessions", form, &raw); err != nil {
		return nil, err
	}

	session := &AccountSession{
		ClientSecret: raw.ClientSecret,
		Components:   make(map[string]bool, len(raw.Components)),
	}
	for name, c := range raw.Components {
		session.Components[name] = c.Enabled
	}
	return session, nil
}

func (c *HTTPClient) RetrieveAccount(ctx context.Context, secretKey string) (*Account, error) {
	var account Account
	if err := c.do(ctx, secretKey, http.MethodGet, "/v1/account", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *HTTPClient) ListAccounts(ctx context.Context, secretKey string, limit int) ([]Account, error) {
	path := "/v1/accounts?limit=" + strconv.Itoa(limit)

	var list struct {
		Data []Account `json:"data"`
	}
	if err := c.do(ctx, secretKey, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *HTTPClient) do(ctx context.Context, secretKey, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("payments api request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payments api response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payments api response: %w", err)
	}
	return nil
}

// decodeAPIError maps upstream failures onto the shared sentinels so
// callers can distinguish bad credentials from bad requests.
func decodeAPIError(status int, data []byte) error {
	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(data, &payload)

	msg := payload.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}

	switch {
	case status == http.StatusUnauthorized || payload.Error.Type == "authentication_error":
		return fmt.Errorf("%w: %s", common.ErrUpstreamAuth, msg)
	case payload.Error.Type == "invalid_request_error" || status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrUpstreamRequest, msg)
	default:
		return fmt.Errorf("payments api error: %s", msg)
	}
}
