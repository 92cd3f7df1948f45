package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Shape(t *testing.T) {
	d := Default()

	assert.Equal(t, FlowHosted, d.OnboardingFlow())
	assert.Equal(t, AccountTypeStandard, d.AccountType())
	assert.Equal(t, DashboardHosted, d.DashboardType())
	assert.Equal(t, 0, d.ActiveTabIndex())

	g := d.GeneralSettings()
	assert.False(t, g.IsVerified)
	assert.Equal(t, "AU", g.ConnectedAccountCountry)
}

func TestOnboardingFlow_UnknownDegradesToHosted(t *testing.T) {
	r := Default()
	r.Onboarding[KeyOnboardingFlow] = "legacyXYZ"
	assert.Equal(t, FlowHosted, r.OnboardingFlow())
}

func TestDashboardType_LegacySpellingAndUnknown(t *testing.T) {
	r := Default()

	r.Dashboard[KeyDashboardType] = "stripe"
	assert.Equal(t, DashboardHosted, r.DashboardType(), "legacy hosted spelling")

	r.Dashboard[KeyDashboardType] = "somethingNew"
	assert.Equal(t, DashboardHosted, r.DashboardType(), "unknown value degrades")

	r.Dashboard[KeyDashboardType] = DashboardNone
	assert.Equal(t, DashboardNone, r.DashboardType())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, New().IsEmpty())
	assert.False(t, Default().IsEmpty())

	r := New()
	r.Logs["lastError"] = "x"
	assert.False(t, r.IsEmpty(), "a single key in any category counts")
}

func TestClone_Independent(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.General[KeyAuthPublicKey] = "pk_changed"
	assert.Empty(t, a.GeneralSettings().AuthPublicKey)
}

func TestRecord_JSONRoundTripKeepsIntTab(t *testing.T) {
	r := Default()
	r.UI[KeyActiveTabIndex] = 4

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))

	// numbers come back as float64; the accessor must still read them
	assert.Equal(t, 4, back.ActiveTabIndex())
}

func TestActiveTabIndex_NeverNegative(t *testing.T) {
	r := Default()
	r.UI[KeyActiveTabIndex] = -3
	assert.Equal(t, 0, r.ActiveTabIndex())
}

func TestValidCategory(t *testing.T) {
	for _, name := range CategoryNames {
		assert.True(t, ValidCategory(name), name)
	}
	assert.False(t, ValidCategory("database"))
	assert.False(t, ValidCategory(""))
}
