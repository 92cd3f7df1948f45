// Package flow selects and runs the onboarding and dashboard strategies
// the current settings record calls for. Selection is a pure function of
// the record; each strategy is an independent state machine.
package flow

import (
	"context"
	"sync"

	"github.com/aleksvolk/connectboard/internal/client/api"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// Gateway is the server surface the strategies need. *api.Client
// satisfies it.
type Gateway interface {
	CreateAccountWithEmail(ctx context.Context, email string) (*api.ProvisionedAccount, error)
	HostedRedirectURL(ctx context.Context, accountID string) (string, error)
	EmbeddedOnboardingSession(ctx context.Context, accountID string) (string, error)
	EmbeddedDashboardSession(ctx context.Context, accountID string) (*api.DashboardSession, error)
}

// OnboardingStrategy is one of the mutually exclusive onboarding variants.
type OnboardingStrategy interface {
	Kind() string
}

// DashboardStrategy is one of the mutually exclusive dashboard variants.
type DashboardStrategy interface {
	Kind() string
}

// Dispatcher holds the currently selected strategies and re-evaluates the
// selection whenever the settings record changes. A strategy instance is
// replaced only when the configured kind changes, so in-progress state
// survives unrelated settings edits.
type Dispatcher struct {
	gateway Gateway

	mu         sync.Mutex
	onboarding OnboardingStrategy
	dashboard  DashboardStrategy
}

func NewDispatcher(gateway Gateway) *Dispatcher {
	return &Dispatcher{gateway: gateway}
}

// Apply re-selects strategies from the record. The record's accessors
// already degrade unknown enum values to the default variant, so stored
// settings written by newer builds select Hosted rather than failing.
func (d *Dispatcher) Apply(record settings.Record) {
	onboardingKind := record.OnboardingFlow()
	dashboardKind := record.DashboardType()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.onboarding == nil || d.onboarding.Kind() != onboardingKind {
		d.onboarding = d.newOnboarding(onboardingKind)
	}
	if d.dashboard == nil || d.dashboard.Kind() != dashboardKind {
		d.dashboard = d.newDashboard(dashboardKind)
	}
}

func (d *Dispatcher) newOnboarding(kind string) OnboardingStrategy {
	switch kind {
	case settings.FlowEmbedded:
		return NewEmbeddedOnboarding(d.gateway)
	case settings.FlowAPI:
		return NewAPIOnboarding()
	default:
		return NewHostedOnboarding(d.gateway)
	}
}

func (d *Dispatcher) newDashboard(kind string) DashboardStrategy {
	switch kind {
	case settings.DashboardEmbedded:
		return NewEmbeddedDashboard(d.gateway)
	case settings.DashboardNone:
		return NewNoneDashboard()
	default:
		return NewHostedDashboard()
	}
}

// Onboarding returns the active onboarding strategy, or nil before the
// first Apply.
func (d *Dispatcher) Onboarding() OnboardingStrategy {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onboarding
}

// Dashboard returns the active dashboard strategy, or nil before the
// first Apply.
func (d *Dispatcher) Dashboard() DashboardStrategy {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dashboard
}
