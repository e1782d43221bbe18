package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rider-session/internal/config"
	"github.com/go-rider-session/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*dynamodb.GetItemOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.UpdateItemOutput{}, args.Error(0)
}
func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.DeleteItemOutput{}, args.Error(0)
}
func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*dynamodb.QueryOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAdmin struct{ mock.Mock }

func (m *mockAdmin) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return &dynamodb.CreateTableOutput{}, m.Called(*in.TableName).Error(0)
}
func (m *mockAdmin) UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	return &dynamodb.UpdateTimeToLiveOutput{}, m.Called(*in.TableName).Error(0)
}

func mustMarshal(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return item
}

// --- ProfileRepo ---

func TestProfileRepo_Get_ReturnsRecord(t *testing.T) {
	api := &mockAPI{}
	want := domain.Profile{UID: "u1", Name: "Ana", Level: domain.TierPro, Stats: domain.Stats{TotalDistance: "1200", TotalRides: 9}}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "profiles" && in.Key["uid"].(*types.AttributeValueMemberS).Value == "u1"
	})).Return(&dynamodb.GetItemOutput{Item: mustMarshal(t, want)}, nil)

	got, err := NewProfileRepo(api, "profiles").Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestProfileRepo_Get_MissingIsNotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewProfileRepo(api, "profiles").Get(context.Background(), "u1")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProfileRepo_Put_SetsUID(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		uid, ok := in.Item["uid"].(*types.AttributeValueMemberS)
		return ok && uid.Value == "u1"
	})).Return(nil)

	err := NewProfileRepo(api, "profiles").Put(context.Background(), "u1", &domain.Profile{Name: "Ana"})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestProfileRepo_Merge_BuildsUpdate(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "SET #f0 = :v0" && in.ExpressionAttributeNames["#f0"] == "avatar"
	})).Return(nil)

	err := NewProfileRepo(api, "profiles").Merge(context.Background(), "u1", map[string]interface{}{"avatar": "https://x/a.png"})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestProfileRepo_Merge_EmptyFields(t *testing.T) {
	err := NewProfileRepo(&mockAPI{}, "profiles").Merge(context.Background(), "u1", map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

// --- AccountRepo ---

func TestAccountRepo_GetByEmail_NoItems(t *testing.T) {
	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == "email-index"
	})).Return(&dynamodb.QueryOutput{}, nil)

	_, err := NewAccountRepo(api, "accounts").GetByEmail(context.Background(), "a@b.com")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_GetByEmail_Found(t *testing.T) {
	api := &mockAPI{}
	acct := domain.Account{UID: "u1", Email: "a@b.com", Provider: domain.ProviderPassword}
	api.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{mustMarshal(t, acct)},
	}, nil)

	got, err := NewAccountRepo(api, "accounts").GetByEmail(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
}

func TestAccountRepo_Put_IsConditional(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(uid)"
	})).Return(nil)

	require.NoError(t, NewAccountRepo(api, "accounts").Put(context.Background(), &domain.Account{UID: "u1"}))
	api.AssertExpectations(t)
}

func TestAccountRepo_MarkEmailVerified_StampsUpdatedAt(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		names := map[string]bool{}
		for _, n := range in.ExpressionAttributeNames {
			names[n] = true
		}
		return names["email_verified"] && names["updated_at"]
	})).Return(nil)

	require.NoError(t, NewAccountRepo(api, "accounts").MarkEmailVerified(context.Background(), "u1"))
	api.AssertExpectations(t)
}

// --- AuthSessionRepo ---

func TestAuthSessionRepo_Get_DisabledIsUnauthorized(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: mustMarshal(t, domain.AuthSession{SessionID: "s1", UID: "u1", Enable: false}),
	}, nil)

	_, err := NewAuthSessionRepo(api, "auth_sessions").Get(context.Background(), "s1")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestAuthSessionRepo_Get_Enabled(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: mustMarshal(t, domain.AuthSession{SessionID: "s1", UID: "u1", Enable: true}),
	}, nil)

	s, err := NewAuthSessionRepo(api, "auth_sessions").Get(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "u1", s.UID)
}

// --- VerificationRepo ---

func TestVerificationRepo_Get_Missing(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewVerificationRepo(api, "verifications").Get(context.Background(), "u1", domain.VerificationEmail)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Bootstrap ---

func TestBootstrap_ExistingTablesAreSkipped(t *testing.T) {
	admin := &mockAdmin{}
	admin.On("CreateTable", "accounts").Return(&types.ResourceInUseException{})
	admin.On("CreateTable", mock.Anything).Return(nil)
	admin.On("UpdateTimeToLive", "verifications").Return(nil)

	Bootstrap(context.Background(), admin, config.DynamoTables{
		Accounts: "accounts", AuthSessions: "auth_sessions", Profiles: "profiles", Verifications: "verifications",
	})

	admin.AssertNumberOfCalls(t, "CreateTable", 4)
	admin.AssertCalled(t, "UpdateTimeToLive", "verifications")
}
