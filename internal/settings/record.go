// Package settings defines the configuration record shared by the server
// store and the client synchronizer: category shapes, hard-coded defaults,
// and the merge rule applied on every partial update.
//
// Categories are open JSON objects rather than closed structs so that keys
// written by a newer build survive a read-merge-write cycle performed by an
// older one. Typed accessors decode the well-known keys leniently.
package settings

import "strconv"

// Category names. The record always carries all six; the HTTP settings
// surface exposes five of them for per-category updates (dashboard travels
// only inside whole-record saves, matching the original wire contract).
const (
	CategoryGeneral    = "general"
	CategoryOnboarding = "onboarding"
	CategoryDashboard  = "dashboard"
	CategoryPayment    = "payment"
	CategoryLogs       = "logs"
	CategoryUI         = "ui"
)

// CategoryNames lists every category of the record, in storage order.
var CategoryNames = []string{
	CategoryGeneral,
	CategoryOnboarding,
	CategoryDashboard,
	CategoryPayment,
	CategoryLogs,
	CategoryUI,
}

// Well-known keys inside the general category.
const (
	KeyAuthPublicKey           = "authPublicKey"
	KeyAuthSecretKey           = "authSecretKey"
	KeyIsVerified              = "isVerified"
	KeyVerifiedAccountID       = "verifiedAccountId"
	KeyConnectedAccountCountry = "connectedAccountCountry"
)

// Well-known keys inside the onboarding, dashboard and ui categories.
const (
	KeyAccountType    = "accountType"
	KeyOnboardingFlow = "onboardingFlow"
	KeyDashboardType  = "type"
	KeyActiveTabIndex = "activeTabIndex"
)

// Account types for newly provisioned connected accounts.
const (
	AccountTypeStandard = "standard"
	AccountTypeExpress  = "express"
	AccountTypeCustom   = "custom"
)

// Onboarding flow variants.
const (
	FlowHosted   = "hosted"
	FlowEmbedded = "embedded"
	FlowAPI      = "api"
)

// Dashboard variants. "stripe" is the legacy spelling of the hosted
// dashboard still found in stored records; it resolves to DashboardHosted.
const (
	DashboardHosted   = "hosted"
	DashboardEmbedded = "embedded"
	DashboardNone     = "none"

	legacyDashboardHosted = "stripe"
)

// Record is the full configuration for one logical user. Every category is
// non-nil after New, Default, Clone, Merge or Resolve.
type Record struct {
	General    map[string]any `json:"general"`
	Onboarding map[string]any `json:"onboarding"`
	Dashboard  map[string]any `json:"dashboard"`
	Payment    map[string]any `json:"payment"`
	Logs       map[string]any `json:"logs"`
	UI         map[string]any `json:"ui"`
}

// New returns a record with all categories present but empty.
func New() Record {
	return Record{
		General:    map[string]any{},
		Onboarding: map[string]any{},
		Dashboard:  map[string]any{},
		Payment:    map[string]any{},
		Logs:       map[string]any{},
		UI:         map[string]any{},
	}
}

// Default returns the hard-coded defaults used whenever neither the remote
// store nor the local cache yields a usable record.
func Default() Record {
	return Record{
		General: map[string]any{
			KeyAuthPublicKey:           "",
			KeyAuthSecretKey:           "",
			KeyIsVerified:              false,
			KeyVerifiedAccountID:       "",
			KeyConnectedAccountCountry: "AU",
		},
		Onboarding: map[string]any{
			KeyAccountType:    AccountTypeStandard,
			KeyOnboardingFlow: FlowHosted,
		},
		// The stored default keeps the legacy spelling so that records
		// written by older builds and fresh defaults compare equal.
		Dashboard: map[string]any{
			KeyDashboardType: legacyDashboardHosted,
		},
		Payment: map[string]any{},
		Logs:    map[string]any{},
		UI: map[string]any{
			KeyActiveTabIndex: 0,
		},
	}
}

// Category returns the named category map, or false for an unknown name.
// The returned map is the record's own; callers that mutate it must hold
// whatever lock guards the record.
func (r *Record) Category(name string) (map[string]any, bool) {
	switch name {
	case CategoryGeneral:
		return r.General, true
	case CategoryOnboarding:
		return r.Onboarding, true
	case CategoryDashboard:
		return r.Dashboard, true
	case CategoryPayment:
		return r.Payment, true
	case CategoryLogs:
		return r.Logs, true
	case CategoryUI:
		return r.UI, true
	default:
		return nil, false
	}
}

func (r *Record) setCategory(name string, m map[string]any) {
	switch name {
	case CategoryGeneral:
		r.General = m
	case CategoryOnboarding:
		r.Onboarding = m
	case CategoryDashboard:
		r.Dashboard = m
	case CategoryPayment:
		r.Payment = m
	case CategoryLogs:
		r.Logs = m
	case CategoryUI:
		r.UI = m
	}
}

// ValidCategory reports whether name is one of the six known categories.
func ValidCategory(name string) bool {
	for _, c := range CategoryNames {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a copy of r with every category map copied one level deep.
// Category values are assumed to be scalars.
func (r Record) Clone() Record {
	out := Record{}
	for _, name := range CategoryNames {
		src, _ := r.Category(name)
		dst := make(map[string]any, len(src))
		for k, v := range src {
			dst[k] = v
		}
		out.setCategory(name, dst)
	}
	return out
}

// IsEmpty reports whether every category of r has zero keys. This is the
// structural non-emptiness check the synchronizer uses to distinguish a
// never-configured remote record from a saved one.
func (r Record) IsEmpty() bool {
	for _, name := range CategoryNames {
		if c, _ := r.Category(name); len(c) > 0 {
			return false
		}
	}
	return true
}

// General is the typed view of the general category.
type General struct {
	AuthPublicKey           string
	AuthSecretKey           string
	IsVerified              bool
	VerifiedAccountID       string
	ConnectedAccountCountry string
}

// GeneralSettings decodes the well-known general keys, tolerating missing
// or mistyped values.
func (r Record) GeneralSettings() General {
	return General{
		AuthPublicKey:           stringAt(r.General, KeyAuthPublicKey),
		AuthSecretKey:           stringAt(r.General, KeyAuthSecretKey),
		IsVerified:              boolAt(r.General, KeyIsVerified),
		VerifiedAccountID:       stringAt(r.General, KeyVerifiedAccountID),
		ConnectedAccountCountry: stringAt(r.General, KeyConnectedAccountCountry),
	}
}

// OnboardingFlow returns the configured onboarding flow, degrading any
// unrecognized stored value to the hosted flow so records written by newer
// builds keep working.
func (r Record) OnboardingFlow() string {
	switch stringAt(r.Onboarding, KeyOnboardingFlow) {
	case FlowEmbedded:
		return FlowEmbedded
	case FlowAPI:
		return FlowAPI
	default:
		return FlowHosted
	}
}

// AccountType returns the configured connected-account type, degrading
// unknown values to standard.
func (r Record) AccountType() string {
	switch stringAt(r.Onboarding, KeyAccountType) {
	case AccountTypeExpress:
		return AccountTypeExpress
	case AccountTypeCustom:
		return AccountTypeCustom
	default:
		return AccountTypeStandard
	}
}

// DashboardType returns the configured dashboard variant, degrading unknown
// values to the hosted dashboard.
func (r Record) DashboardType() string {
	switch stringAt(r.Dashboard, KeyDashboardType) {
	case DashboardEmbedded:
		return DashboardEmbedded
	case DashboardNone:
		return DashboardNone
	default:
		return DashboardHosted
	}
}

// ActiveTabIndex returns the persisted UI tab, clamped to be non-negative.
func (r Record) ActiveTabIndex() int {
	n := intAt(r.UI, KeyActiveTabIndex)
	if n < 0 {
		return 0
	}
	return n
}

func stringAt(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func boolAt(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}

// intAt accepts both int (in-process writes) and float64 (values that went
// through encoding/json) as well as numeric strings.
func intAt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
