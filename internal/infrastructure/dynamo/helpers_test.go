package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rider-session/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "name"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"level":  "PRO",
		"avatar": "https://x/a.png",
		"name":   "alice",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "avatar", ue1.Names["#f0"])
	assert.Equal(t, "level", ue1.Names["#f1"])
	assert.Equal(t, "name", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"verified": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_NestedStatsUseAttributeNames(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		domain.FieldStats: domain.Stats{TotalDistance: "120", TotalRides: 3},
	})
	require.NoError(t, err)
	m, ok := ue.Values[":v0"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	dist, ok := m.Value["total_distance"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "120", dist.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestCompositeKey(t *testing.T) {
	k := compositeKey("uid", "u1", "type", "email")
	assert.Equal(t, "u1", k["uid"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "email", k["type"].(*types.AttributeValueMemberS).Value)
}
