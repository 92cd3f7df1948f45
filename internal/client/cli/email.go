package cli

import (
	"fmt"

	"github.com/aleksvolk/connectboard/internal/common"
)

// generateDemoEmail returns a throwaway address for demo onboarding runs,
// shaped like demo+a1b2c3d4@example.com.
func generateDemoEmail() (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("demo+%s@example.com", suffix), nil
}
