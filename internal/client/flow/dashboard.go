package flow

import (
	"context"
	"sync"

	"github.com/aleksvolk/connectboard/internal/settings"
)

// DashboardState is the lifecycle of a dashboard strategy.
type DashboardState int

const (
	DashboardIdle DashboardState = iota
	DashboardLoading
	DashboardReady
	DashboardFailed
)

// HostedDashboard points the operator at the remote hosted dashboard; the
// client performs no calls for it.
type HostedDashboard struct{}

func NewHostedDashboard() *HostedDashboard { return &HostedDashboard{} }

func (h *HostedDashboard) Kind() string { return settings.DashboardHosted }

func (h *HostedDashboard) Guidance() string {
	return "Connected accounts use the hosted dashboard; sign in at the payments provider."
}

// EmbeddedDashboard fetches session material for the active account and
// exposes which sub-components the remote side enabled.
type EmbeddedDashboard struct {
	gateway Gateway

	mu           sync.Mutex
	state        DashboardState
	message      string
	clientSecret string
	components   map[string]bool
}

func NewEmbeddedDashboard(gateway Gateway) *EmbeddedDashboard {
	return &EmbeddedDashboard{gateway: gateway, state: DashboardIdle}
}

func (e *EmbeddedDashboard) Kind() string { return settings.DashboardEmbedded }

// Load fetches the dashboard session for accountID. A failure lands in
// DashboardFailed with a message; a later Load re-runs from scratch.
func (e *EmbeddedDashboard) Load(ctx context.Context, accountID string) error {
	e.mu.Lock()
	e.state = DashboardLoading
	e.message = ""
	e.mu.Unlock()

	session, err := e.gateway.EmbeddedDashboardSession(ctx, accountID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = DashboardFailed
		e.message = err.Error()
		return err
	}

	e.clientSecret = session.ClientSecret
	e.components = session.Components
	e.state = DashboardReady
	return nil
}

func (e *EmbeddedDashboard) State() DashboardState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *EmbeddedDashboard) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

func (e *EmbeddedDashboard) ClientSecret() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clientSecret
}

// EnabledComponents lists the sub-components the session enabled, so the
// caller renders only those.
func (e *EmbeddedDashboard) EnabledComponents() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var enabled []string
	for name, on := range e.components {
		if on {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

// NoneDashboard is the terminal variant: no dashboard at all.
type NoneDashboard struct{}

func NewNoneDashboard() *NoneDashboard { return &NoneDashboard{} }

func (n *NoneDashboard) Kind() string { return settings.DashboardNone }
