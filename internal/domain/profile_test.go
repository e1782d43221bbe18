package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackProfile_UsesIdentityFields(t *testing.T) {
	p := FallbackProfile(&Identity{UID: "u1", Email: "a@b.com", DisplayName: "Ana", PhotoURL: "https://x/p.png", EmailVerified: true})

	assert.Equal(t, "u1", p.UID)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "https://x/p.png", p.Avatar)
	assert.True(t, p.Verified)
	assert.Equal(t, TierBasic, p.Level)
	assert.Equal(t, "0", p.Stats.TotalDistance)
	assert.Zero(t, p.Stats.TotalRides)
}

func TestFallbackProfile_NameFromEmailLocalPart(t *testing.T) {
	p := FallbackProfile(&Identity{UID: "u1", Email: "rider@b.com"})
	assert.Equal(t, "rider", p.Name)
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "rider", localPart("rider@b.com"))
	assert.Equal(t, "plain", localPart("plain"))
	assert.Equal(t, "", localPart("@b.com"))
}

func TestProfileUpdate_FieldsOnlySetValues(t *testing.T) {
	name := "New"
	level := TierPro
	fields := ProfileUpdate{Name: &name, Level: &level}.Fields()

	assert.Equal(t, map[string]interface{}{FieldName: "New", FieldLevel: TierPro}, fields)
	assert.True(t, ProfileUpdate{}.Empty())
}

func TestProfileUpdate_ApplyLeavesOtherFields(t *testing.T) {
	bio := "weekend tourer"
	p := Profile{UID: "u1", Name: "Ana", Level: TierVIP}
	got := ProfileUpdate{Bio: &bio}.Apply(p)

	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, TierVIP, got.Level)
	assert.Equal(t, "weekend tourer", got.Bio)
	assert.Empty(t, p.Bio)
}

func TestProfile_CanMessage(t *testing.T) {
	assert.False(t, (&Profile{Level: TierBasic}).CanMessage())
	assert.True(t, (&Profile{Level: TierPro}).CanMessage())
	assert.True(t, (&Profile{Level: TierPremium}).CanMessage())
}
