package payments

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksvolk/connectboard/internal/common"
)

func newStubClient(t *testing.T, stub *StubBackend) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL)
}

func TestCreateAccount_Success(t *testing.T) {
	client := newStubClient(t, NewStubBackend())

	account, err := client.CreateAccount(context.Background(), "sk_test_1", "standard", "AU", "demo@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(account.ID, "acct_"), "id: %s", account.ID)
	assert.Equal(t, "standard", account.Type)
	assert.Equal(t, "AU", account.Country)
}

func TestCreateAccount_InvalidType(t *testing.T) {
	client := newStubClient(t, NewStubBackend())

	_, err := client.CreateAccount(context.Background(), "sk_test_1", "platinum", "AU", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamRequest), "got %v", err)
}

func TestAuthError_MapsToUpstreamAuth(t *testing.T) {
	stub := NewStubBackend()
	stub.SecretKey = "sk_test_good"
	client := newStubClient(t, stub)

	_, err := client.RetrieveAccount(context.Background(), "sk_test_bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstreamAuth), "got %v", err)
}

func TestCreateAccountLink_CarriesAccountID(t *testing.T) {
	client := newStubClient(t, NewStubBackend())

	link, err := client.CreateAccountLink(context.Background(), "sk_test_1", "acct_42",
		"http://localhost:3000/return/acct_42", "http://localhost:3000/refresh/acct_42")
	require.NoError(t, err)
	assert.Contains(t, link.URL, "acct_42")
}

func TestCreateAccountSession_DecodesComponents(t *testing.T) {
	client := newStubClient(t, NewStubBackend())

	session, err := client.CreateAccountSession(context.Background(), "sk_test_1", "acct_42",
		[]string{ComponentPayments, ComponentPayouts, ComponentBalances})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ClientSecret)
	assert.True(t, session.Components[ComponentPayments])
	assert.True(t, session.Components[ComponentPayouts])
	assert.True(t, session.Components[ComponentBalances])
	assert.False(t, session.Components[ComponentAccountOnboarding])
}

func TestListAccounts_ReflectsCreations(t *testing.T) {
	client := newStubClient(t, NewStubBackend())
	ctx := context.Background()

	accounts, err := client.ListAccounts(ctx, "sk_test_1", 100)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = client.CreateAccount(ctx, "sk_test_1", "express", "AU", "")
	require.NoError(t, err)

	accounts, err = client.ListAccounts(ctx, "sk_test_1", 100)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
