package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_BurstThenDeny(t *testing.T) {
	th := NewThrottle(3)
	now := time.Now()
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("a@b.com"))
	assert.True(t, th.Allow("a@b.com"))
	assert.True(t, th.Allow("a@b.com"))
	assert.False(t, th.Allow("a@b.com"))
	assert.True(t, th.Allow("c@d.com"))
}

func TestThrottle_Refills(t *testing.T) {
	th := NewThrottle(1)
	now := time.Now()
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("a@b.com"))
	assert.False(t, th.Allow("a@b.com"))

	now = now.Add(61 * time.Second)
	assert.True(t, th.Allow("a@b.com"))
}

func TestThrottle_SweepsIdleKeys(t *testing.T) {
	th := NewThrottle(5)
	now := time.Now()
	th.now = func() time.Time { return now }
	th.Allow("a@b.com")

	now = now.Add(11 * time.Minute)
	th.Allow("c@d.com")

	assert.Len(t, th.limiters, 1)
}

func TestThrottle_NilAllows(t *testing.T) {
	var th *Throttle
	assert.True(t, th.Allow("x"))
	assert.Nil(t, NewThrottle(0))
}
