package validate

import (
	"errors"
	"testing"

	"github.com/go-rider-session/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(domain.NewAccount{Email: "a@b.com", Password: "secret1"}))
}

func TestStruct_Failures(t *testing.T) {
	err := Struct(domain.NewAccount{Email: "nope", Password: "123"})
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has("Email"))
	assert.True(t, ve.Has("Password"))
	assert.False(t, ve.Has("DisplayName"))
	assert.Contains(t, err.Error(), "field 'Email' failed 'email'")
	assert.Contains(t, err.Error(), "field 'Password' failed 'min'")
}
