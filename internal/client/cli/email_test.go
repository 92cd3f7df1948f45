package cli

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDemoEmail(t *testing.T) {
	email, err := generateDemoEmail()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^demo\+[0-9a-f]{8}@example\.com$`), email)

	other, err := generateDemoEmail()
	require.NoError(t, err)
	assert.NotEqual(t, email, other)
}
