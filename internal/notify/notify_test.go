package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuccessEvent(t *testing.T) {
	ev := Success("req-1", "put", `uploaded "a.png" (3 bytes)`)

	assert.Equal(t, "req-1", ev.CallID)
	assert.Equal(t, "put", ev.Op)
	assert.Equal(t, SeverityInfo, ev.Severity)
	assert.True(t, ev.OK)
	assert.True(t, ev.Visible)
	assert.WithinDuration(t, time.Now().UTC(), ev.At, time.Minute)
}

func TestFailureEvent(t *testing.T) {
	ev := Failure("req-2", "delete", "stat object: not found")

	assert.Equal(t, SeverityError, ev.Severity)
	assert.False(t, ev.OK)
	assert.True(t, ev.Visible)
	assert.Equal(t, "stat object: not found", ev.Message)
}
