package dbgerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(CapacityExceeded, "table full: %d/%d", 750, 1000)
	assert.Equal(t, CapacityExceeded, KindOf(err))
	assert.Equal(t, Other, KindOf(fmt.Errorf("plain")))
}

func TestWalkReason(t *testing.T) {
	err := Walk(ReasonAmbiguous, "node %d", 42)
	assert.Equal(t, WalkTerminated, KindOf(err))
	assert.Equal(t, ReasonAmbiguous, ReasonOf(err))
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestWrappedCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := E(IoError, "write failed", cause)
	assert.Equal(t, IoError, KindOf(err))
	assert.Contains(t, err.Error(), "disk full")
}
