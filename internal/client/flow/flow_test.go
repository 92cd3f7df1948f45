package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksvolk/connectboard/internal/client/api"
	"github.com/aleksvolk/connectboard/internal/settings"
)

type fakeGateway struct {
	mu sync.Mutex

	provisionErr   error
	provisioned    map[string]string
	nextAccount    int
	provisionCalls int

	redirectErr error

	sessionErr   error
	sessionCalls int
	// sessionGate, when set, blocks session calls until released, to
	// exercise the in-flight guard
	sessionGate chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{provisioned: make(map[string]string)}
}

func (f *fakeGateway) CreateAccountWithEmail(_ context.Context, email string) (*api.ProvisionedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisionCalls++
	if f.provisionErr != nil {
		return nil, f.provisionErr
	}
	id, ok := f.provisioned[email]
	if !ok {
		f.nextAccount++
		id = fmt.Sprintf("acct_%d", f.nextAccount)
		f.provisioned[email] = id
	}
	return &api.ProvisionedAccount{AccountID: id, Email: email}, nil
}

func (f *fakeGateway) HostedRedirectURL(_ context.Context, accountID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redirectErr != nil {
		return "", f.redirectErr
	}
	return "https://connect.example.com/setup/" + accountID +
		"?return=/return/" + accountID + "&refresh=/refresh/" + accountID, nil
}

func (f *fakeGateway) EmbeddedOnboardingSession(_ context.Context, accountID string) (string, error) {
	f.mu.Lock()
	gate := f.sessionGate
	f.sessionCalls++
	err := f.sessionErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return accountID + "_secret", nil
}

func (f *fakeGateway) EmbeddedDashboardSession(_ context.Context, accountID string) (*api.DashboardSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &api.DashboardSession{
		ClientSecret: accountID + "_dash",
		Components:   map[string]bool{"payments": true, "payouts": true, "balances": false},
	}, nil
}

func recordWith(onboardingFlow, dashboardType string) settings.Record {
	record := settings.Default()
	record.Onboarding[settings.KeyOnboardingFlow] = onboardingFlow
	record.Dashboard[settings.KeyDashboardType] = dashboardType
	return record
}

func TestDispatcher_Selection(t *testing.T) {
	tests := []struct {
		name           string
		onboardingFlow string
		dashboardType  string
		wantOnboarding string
		wantDashboard  string
	}{
		{"hosted hosted", "hosted", "hosted", "hosted", "hosted"},
		{"embedded embedded", "embedded", "embedded", "embedded", "embedded"},
		{"api none", "api", "none", "api", "none"},
		{"unknown degrades to hosted", "legacyXYZ", "whatever", "hosted", "hosted"},
		{"legacy stripe dashboard", "hosted", "stripe", "hosted", "hosted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(newFakeGateway())
			d.Apply(recordWith(tt.onboardingFlow, tt.dashboardType))

			assert.Equal(t, tt.wantOnboarding, d.Onboarding().Kind())
			assert.Equal(t, tt.wantDashboard, d.Dashboard().Kind())
		})
	}
}

func TestDispatcher_KeepsStrategyAcrossUnrelatedChanges(t *testing.T) {
	d := NewDispatcher(newFakeGateway())
	d.Apply(recordWith("hosted", "hosted"))
	first := d.Onboarding()

	record := recordWith("hosted", "hosted")
	record.UI[settings.KeyActiveTabIndex] = 4
	d.Apply(record)

	assert.Same(t, first, d.Onboarding())
}

func TestDispatcher_ReplacesStrategyOnKindChange(t *testing.T) {
	d := NewDispatcher(newFakeGateway())
	d.Apply(recordWith("hosted", "hosted"))
	first := d.Onboarding()

	d.Apply(recordWith("embedded", "hosted"))
	assert.NotSame(t, first, d.Onboarding())
	assert.Equal(t, "embedded", d.Onboarding().Kind())

	// switching back yields a fresh strategy in its initial state
	d.Apply(recordWith("hosted", "hosted"))
	hosted := d.Onboarding().(*HostedOnboarding)
	assert.Equal(t, OnboardingCollectingEmail, hosted.State())
}

func TestHostedOnboarding_HappyPath(t *testing.T) {
	gateway := newFakeGateway()
	h := NewHostedOnboarding(gateway)

	require.Equal(t, OnboardingCollectingEmail, h.State())

	require.NoError(t, h.SubmitEmail(context.Background(), "demo@example.com"))

	assert.Equal(t, OnboardingRedirecting, h.State())
	assert.Equal(t, "acct_1", h.AccountID())
	assert.Contains(t, h.RedirectURL(), "acct_1")
}

func TestHostedOnboarding_FailureReturnsToCollectingEmail(t *testing.T) {
	gateway := newFakeGateway()
	gateway.provisionErr = errors.New("invalid email")
	h := NewHostedOnboarding(gateway)

	err := h.SubmitEmail(context.Background(), "nope")
	require.Error(t, err)

	assert.Equal(t, OnboardingCollectingEmail, h.State())
	assert.Contains(t, h.Message(), "invalid email")

	// no automatic retry happened
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	assert.Equal(t, 1, gateway.provisionCalls)
}

func TestHostedOnboarding_RedirectFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.redirectErr = errors.New("upstream down")
	h := NewHostedOnboarding(gateway)

	require.Error(t, h.SubmitEmail(context.Background(), "demo@example.com"))
	assert.Equal(t, OnboardingCollectingEmail, h.State())
	assert.Contains(t, h.Message(), "upstream down")
}

func TestEmbeddedOnboarding_HappyPath(t *testing.T) {
	e := NewEmbeddedOnboarding(newFakeGateway())

	require.NoError(t, e.SubmitEmail(context.Background(), "demo@example.com"))

	assert.Equal(t, OnboardingActive, e.State())
	assert.Equal(t, "acct_1_secret", e.ClientSecret())

	e.Exit()
	assert.Equal(t, OnboardingExited, e.State())
}

func TestEmbeddedOnboarding_InitializeWithoutAccount(t *testing.T) {
	e := NewEmbeddedOnboarding(newFakeGateway())
	assert.ErrorIs(t, e.Initialize(context.Background()), ErrNoAccount)
}

func TestEmbeddedOnboarding_SessionFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.sessionErr = errors.New("bad credentials")
	e := NewEmbeddedOnboarding(gateway)

	require.Error(t, e.SubmitEmail(context.Background(), "demo@example.com"))
	assert.Equal(t, OnboardingError, e.State())
	assert.Contains(t, e.Message(), "bad credentials")
}

func TestEmbeddedOnboarding_SingleFlightPerAccount(t *testing.T) {
	gateway := newFakeGateway()
	gateway.sessionGate = make(chan struct{})
	e := NewEmbeddedOnboarding(gateway)

	// provision first so Initialize has an account to work with
	gateway.mu.Lock()
	gateway.provisioned["demo@example.com"] = "acct_1"
	gateway.mu.Unlock()
	e.accountID = "acct_1"

	done := make(chan error, 1)
	go func() { done <- e.Initialize(context.Background()) }()

	// wait for the first request to be in flight
	for {
		gateway.mu.Lock()
		started := gateway.sessionCalls == 1
		gateway.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// a retriggered initialization for the same account is a no-op
	require.NoError(t, e.Initialize(context.Background()))

	close(gateway.sessionGate)
	require.NoError(t, <-done)

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	assert.Equal(t, 1, gateway.sessionCalls)
}

func TestAPIOnboarding(t *testing.T) {
	a := NewAPIOnboarding()
	assert.Equal(t, "api", a.Kind())
	assert.NotEmpty(t, a.Guidance())
}

func TestEmbeddedDashboard(t *testing.T) {
	e := NewEmbeddedDashboard(newFakeGateway())
	require.Equal(t, DashboardIdle, e.State())

	require.NoError(t, e.Load(context.Background(), "acct_7"))

	assert.Equal(t, DashboardReady, e.State())
	assert.Equal(t, "acct_7_dash", e.ClientSecret())
	assert.ElementsMatch(t, []string{"payments", "payouts"}, e.EnabledComponents())
}

func TestEmbeddedDashboard_Failure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.sessionErr = errors.New("no such account")
	e := NewEmbeddedDashboard(gateway)

	require.Error(t, e.Load(context.Background(), "acct_7"))
	assert.Equal(t, DashboardFailed, e.State())
	assert.Contains(t, e.Message(), "no such account")

	// an explicit retry re-runs from scratch
	gateway.mu.Lock()
	gateway.sessionErr = nil
	gateway.mu.Unlock()
	require.NoError(t, e.Load(context.Background(), "acct_7"))
	assert.Equal(t, DashboardReady, e.State())
}

func TestStaticDashboards(t *testing.T) {
	assert.Equal(t, "hosted", NewHostedDashboard().Kind())
	assert.NotEmpty(t, NewHostedDashboard().Guidance())
	assert.Equal(t, "none", NewNoneDashboard().Kind())
}
