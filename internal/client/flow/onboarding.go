package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/aleksvolk/connectboard/internal/settings"
)

// ErrNoAccount is returned when a widget initialization is requested
// before any account has been provisioned.
var ErrNoAccount = errors.New("no account provisioned yet")

// OnboardingState is the lifecycle of an onboarding strategy.
type OnboardingState int

const (
	OnboardingCollectingEmail OnboardingState = iota
	OnboardingProvisioning
	OnboardingRedirecting
	OnboardingInitializingWidget
	OnboardingActive
	OnboardingExited
	OnboardingError
)

func (s OnboardingState) String() string {
	switch s {
	case OnboardingCollectingEmail:
		return "collecting email"
	case OnboardingProvisioning:
		return "provisioning"
	case OnboardingRedirecting:
		return "redirecting"
	case OnboardingInitializingWidget:
		return "initializing widget"
	case OnboardingActive:
		return "active"
	case OnboardingExited:
		return "exited"
	case OnboardingError:
		return "error"
	default:
		return "unknown"
	}
}

// HostedOnboarding provisions an account for a submitted email and hands
// the session over to the remote hosted flow via a redirect URL. A failure
// returns to email collection with a message; nothing retries on its own.
type HostedOnboarding struct {
	gateway Gateway

	mu          sync.Mutex
	state       OnboardingState
	message     string
	accountID   string
	redirectURL string
}

func NewHostedOnboarding(gateway Gateway) *HostedOnboarding {
	return &HostedOnboarding{gateway: gateway, state: OnboardingCollectingEmail}
}

func (h *HostedOnboarding) Kind() string { return settings.FlowHosted }

// SubmitEmail provisions the account mapped to email and requests the
// hosted redirect. On any failure the strategy returns to
// OnboardingCollectingEmail carrying the error message.
func (h *HostedOnboarding) SubmitEmail(ctx context.Context, email string) error {
	h.mu.Lock()
	h.state = OnboardingProvisioning
	h.message = ""
	h.mu.Unlock()

	account, err := h.gateway.CreateAccountWithEmail(ctx, email)
	if err != nil {
		h.fail(err)
		return err
	}

	url, err := h.gateway.HostedRedirectURL(ctx, account.AccountID)
	if err != nil {
		h.fail(err)
		return err
	}

	h.mu.Lock()
	h.accountID = account.AccountID
	h.redirectURL = url
	h.state = OnboardingRedirecting
	h.mu.Unlock()
	return nil
}

func (h *HostedOnboarding) fail(err error) {
	h.mu.Lock()
	h.state = OnboardingCollectingEmail
	h.message = err.Error()
	h.mu.Unlock()
}

func (h *HostedOnboarding) State() OnboardingState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Message is the user-visible error from the last failed submission.
func (h *HostedOnboarding) Message() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message
}

func (h *HostedOnboarding) AccountID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accountID
}

func (h *HostedOnboarding) RedirectURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redirectURL
}

// EmbeddedOnboarding provisions an account and fetches the session
// material an embedded component needs. At most one initialization request
// per account id may be in flight.
type EmbeddedOnboarding struct {
	gateway Gateway

	mu           sync.Mutex
	state        OnboardingState
	message      string
	accountID    string
	clientSecret string
	inflight     map[string]bool
}

func NewEmbeddedOnboarding(gateway Gateway) *EmbeddedOnboarding {
	return &EmbeddedOnboarding{
		gateway:  gateway,
		state:    OnboardingCollectingEmail,
		inflight: make(map[string]bool),
	}
}

func (e *EmbeddedOnboarding) Kind() string { return settings.FlowEmbedded }

// SubmitEmail provisions the account and initializes the widget session.
func (e *EmbeddedOnboarding) SubmitEmail(ctx context.Context, email string) error {
	e.mu.Lock()
	e.state = OnboardingProvisioning
	e.message = ""
	e.mu.Unlock()

	account, err := e.gateway.CreateAccountWithEmail(ctx, email)
	if err != nil {
		e.mu.Lock()
		e.state = OnboardingCollectingEmail
		e.message = err.Error()
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.accountID = account.AccountID
	e.mu.Unlock()

	return e.Initialize(ctx)
}

// Initialize fetches the widget session for the provisioned account. A
// duplicate trigger while a request for the same account is in flight is
// ignored rather than issued twice.
func (e *EmbeddedOnboarding) Initialize(ctx context.Context) error {
	e.mu.Lock()
	accountID := e.accountID
	if accountID == "" {
		e.mu.Unlock()
		return ErrNoAccount
	}
	if e.inflight[accountID] {
		e.mu.Unlock()
		return nil
	}
	e.inflight[accountID] = true
	e.state = OnboardingInitializingWidget
	e.mu.Unlock()

	secret, err := e.gateway.EmbeddedOnboardingSession(ctx, accountID)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, accountID)

	if err != nil {
		e.state = OnboardingError
		e.message = err.Error()
		return err
	}

	e.clientSecret = secret
	e.state = OnboardingActive
	return nil
}

// Exit marks the widget session finished.
func (e *EmbeddedOnboarding) Exit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = OnboardingExited
}

func (e *EmbeddedOnboarding) State() OnboardingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *EmbeddedOnboarding) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

func (e *EmbeddedOnboarding) AccountID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accountID
}

func (e *EmbeddedOnboarding) ClientSecret() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clientSecret
}

// APIOnboarding is the stateless variant: the platform drives onboarding
// through direct API calls, so the client only presents guidance.
type APIOnboarding struct{}

func NewAPIOnboarding() *APIOnboarding { return &APIOnboarding{} }

func (a *APIOnboarding) Kind() string { return settings.FlowAPI }

// Guidance returns the static instructions shown for this variant.
func (a *APIOnboarding) Guidance() string {
	return "API onboarding collects requirements through direct API calls. " +
		"Create accounts and submit requirements with your server-side integration; " +
		"no interactive flow runs here."
}
