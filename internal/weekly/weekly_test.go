package weekly

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetTargetNonStrict(t *testing.T) {
	assert.False(t, MetTarget(14.9, 15.0, false, false))
	assert.True(t, MetTarget(15.0, 15.0, false, false))
	assert.True(t, MetTarget(15.1, 15.0, false, false))
}

func TestMetTargetOverridePrecedence(t *testing.T) {
	// A forced true survives a re-sum far below the target.
	assert.True(t, MetTarget(0, 15.0, true, true))

	// A forced false survives a re-sum well above the target.
	assert.False(t, MetTarget(40.0, 15.0, true, false))
}

func TestMetTargetIdempotent(t *testing.T) {
	// Re-running the decision with the stored outcome and unchanged
	// inputs never changes the answer.
	for _, overridden := range []bool{false, true} {
		for _, stored := range []bool{false, true} {
			first := MetTarget(12.0, 15.0, overridden, stored)
			second := MetTarget(12.0, 15.0, overridden, first)
			if overridden {
				assert.Equal(t, first, second)
			} else {
				assert.Equal(t, first, MetTarget(12.0, 15.0, false, stored))
				assert.Equal(t, first, second)
			}
		}
	}
}
