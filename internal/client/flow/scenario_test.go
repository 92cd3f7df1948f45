package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksvolk/connectboard/internal/client/api"
	clientsync "github.com/aleksvolk/connectboard/internal/client/sync"
	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/logging"
	"github.com/aleksvolk/connectboard/internal/settings"
)

type scenarioRemote struct{}

func (scenarioRemote) FetchSettings(context.Context) (*settings.Record, error) {
	record := settings.New()
	return &record, nil
}

func (scenarioRemote) SaveSettings(_ context.Context, record settings.Record) (*settings.Record, error) {
	return &record, nil
}

func (scenarioRemote) Verify(context.Context, string, string) (*api.VerifyResult, error) {
	return &api.VerifyResult{}, nil
}

type scenarioCache struct{}

func (scenarioCache) Load(context.Context) (*settings.Record, error) {
	return nil, common.ErrorNotFound
}
func (scenarioCache) Store(context.Context, settings.Record) error { return nil }
func (scenarioCache) Clear(context.Context) error                  { return nil }

// A fresh session with no stored settings and no cache resolves to
// defaults, selects the hosted flow, provisions an account for the
// submitted email and ends up redirecting with the account id in the URL.
func TestFreshSessionThroughHostedOnboarding(t *testing.T) {
	ctx := context.Background()
	logger := logging.Nop()

	synchronizer := clientsync.NewSynchronizer(
		scenarioRemote{}, scenarioCache{}, 10*time.Millisecond, 10*time.Millisecond, logger)
	defer synchronizer.Close()

	dispatcher := NewDispatcher(newFakeGateway())
	synchronizer.Subscribe(dispatcher.Apply)

	require.NoError(t, synchronizer.Init(ctx))

	record := synchronizer.Record()
	assert.Equal(t, settings.FlowHosted, record.OnboardingFlow())
	assert.Equal(t, "stripe", record.Dashboard[settings.KeyDashboardType])
	assert.Equal(t, 0, record.ActiveTabIndex())

	hosted, ok := dispatcher.Onboarding().(*HostedOnboarding)
	require.True(t, ok)
	require.Equal(t, OnboardingCollectingEmail, hosted.State())

	require.NoError(t, hosted.SubmitEmail(ctx, "demo@example.com"))

	assert.Equal(t, OnboardingRedirecting, hosted.State())
	assert.Contains(t, hosted.RedirectURL(), hosted.AccountID())
	assert.Contains(t, hosted.RedirectURL(), "/return/"+hosted.AccountID())
	assert.Contains(t, hosted.RedirectURL(), "/refresh/"+hosted.AccountID())

	// a settings edit switching the flow replaces the strategy
	require.NoError(t, synchronizer.UpdateOnboarding(ctx,
		map[string]any{settings.KeyOnboardingFlow: settings.FlowEmbedded}))
	assert.Equal(t, settings.FlowEmbedded, dispatcher.Onboarding().Kind())
}
