package bot

import (
	"testing"

	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/stretchr/testify/assert"
)

func TestFormatStats(t *testing.T) {
	t.Parallel()

	out := formatStats(&types.EventStats{
		TotalChecks:  42,
		HighThreats:  3,
		MediumThreat: 5,
		LowThreats:   34,
	}, 2)

	// Checks of every kind feed the window, so the count is a total
	assert.Contains(t, out, "Total checks: 42")
	assert.Contains(t, out, "High threats: 3")
	assert.Contains(t, out, "Medium threats: 5")
	assert.Contains(t, out, "Low threats: 34")
	assert.Contains(t, out, "Blocked users: 2")
}
