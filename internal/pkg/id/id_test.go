package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UniqueAndTimed(t *testing.T) {
	before := uint64(time.Now().UnixMilli())
	a, b := New(), New()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)

	u, err := ulid.ParseStrict(a)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, u.Time(), before)
}
