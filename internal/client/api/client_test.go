package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/settings"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "default")
}

func TestFetchSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings", r.URL.Path)
		assert.Equal(t, "default", r.URL.Query().Get("userId"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"general":    map[string]any{"authPublicKey": "pk_test"},
			"onboarding": map[string]any{"onboardingFlow": "embedded"},
			"payment":    map[string]any{},
			"logs":       map[string]any{},
			"ui":         map[string]any{"activeTabIndex": 1},
		})
	})

	record, err := client.FetchSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pk_test", record.GeneralSettings().AuthPublicKey)
	assert.Equal(t, settings.FlowEmbedded, record.OnboardingFlow())
	assert.Equal(t, 1, record.ActiveTabIndex())
}

func TestSaveSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/settings", r.URL.Path)

		var req struct {
			UserID   string          `json:"userId"`
			Settings settings.Record `json:"settings"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "default", req.UserID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(req.Settings)
	})

	record := settings.Default()
	record.UI[settings.KeyActiveTabIndex] = 3

	saved, err := client.SaveSettings(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.ActiveTabIndex())
}

func TestVerify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/settings/verify", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pk_test", req["publicKey"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isVerified": true, "accountId": "acct_7", "isPlatform": true,
		})
	})

	result, err := client.Verify(context.Background(), "pk_test", "sk_test")
	require.NoError(t, err)
	assert.Equal(t, &VerifyResult{IsVerified: true, AccountID: "acct_7", IsPlatform: true}, result)
}

func TestCreateAccountWithEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "id": "acct_123", "email": "demo@example.com",
		})
	})

	account, err := client.CreateAccountWithEmail(context.Background(), "demo@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acct_123", account.AccountID)
	assert.Equal(t, "demo@example.com", account.Email)
}

func TestCreateAccountWithEmail_ValidationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid email"})
	})

	_, err := client.CreateAccountWithEmail(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "invalid email")
}

func TestHostedRedirectURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acct_123", r.URL.Query().Get("account_id"))
		http.Redirect(w, r, "https://connect.example.com/setup/acct_123", http.StatusFound)
	})

	url, err := client.HostedRedirectURL(context.Background(), "acct_123")
	require.NoError(t, err)
	assert.Equal(t, "https://connect.example.com/setup/acct_123", url)
}

func TestHostedRedirectURL_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad credentials"})
	})

	_, err := client.HostedRedirectURL(context.Background(), "acct_123")
	assert.ErrorIs(t, err, common.ErrUpstreamAuth)
}

func TestEmbeddedSessions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/onboarding/embedded":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"client_secret": "secret_onb", "account": "acct_1",
			})
		case "/api/dashboard/embedded":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"clientSecret": "secret_dash",
				"components":   map[string]bool{"payments": true, "payouts": false},
			})
		default:
			http.NotFound(w, r)
		}
	})

	secret, err := client.EmbeddedOnboardingSession(context.Background(), "acct_1")
	require.NoError(t, err)
	assert.Equal(t, "secret_onb", secret)

	session, err := client.EmbeddedDashboardSession(context.Background(), "acct_1")
	require.NoError(t, err)
	assert.Equal(t, "secret_dash", session.ClientSecret)
	assert.True(t, session.Components["payments"])
	assert.False(t, session.Components["payouts"])
}
