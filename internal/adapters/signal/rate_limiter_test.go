package signal

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestInviteRateLimiterSlidingWindow(t *testing.T) {
	clk := clock.NewMock()
	rl := NewInviteRateLimiter(2, time.Minute, clk)

	assert.True(t, rl.Allow("alice"))
	clk.Add(10 * time.Second)
	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("bob"), "limits are per user")

	// first attempt leaves the window
	clk.Add(51 * time.Second)
	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))
}

func TestInviteRateLimiterDisabled(t *testing.T) {
	rl := NewInviteRateLimiter(0, time.Minute, nil)
	for range 100 {
		assert.True(t, rl.Allow("alice"))
	}
}
