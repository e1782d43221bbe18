package domain

// Identity is the identity provider's view of a signed-in principal.
// Session holds it read-only; only the provider produces new values.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	Provider      string `json:"provider,omitempty"` // "password" | "google"
	Token         string `json:"token,omitempty"`
}

// Identity providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Credential is the input to a sign-in call. Password sign-in uses Email and
// Password; federated sign-in uses IDToken.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IDToken  string `json:"id_token"`
}

// NewAccount is the input to account creation.
type NewAccount struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

// Account is the identity provider's stored record.
type Account struct {
	UID           string `json:"uid" dynamodbav:"uid"`
	Email         string `json:"email" dynamodbav:"email"`
	EmailVerified bool   `json:"email_verified" dynamodbav:"email_verified"`
	DisplayName   string `json:"display_name" dynamodbav:"display_name"`
	PhotoURL      string `json:"photo_url" dynamodbav:"photo_url"`
	PasswordHash  string `json:"-" dynamodbav:"password_hash"`
	Provider      string `json:"provider" dynamodbav:"provider"`
	GoogleSub     string `json:"-" dynamodbav:"google_sub"`
	Disabled      bool   `json:"disabled" dynamodbav:"disabled"`
	CreatedAt     int64  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     int64  `json:"updated_at" dynamodbav:"updated_at"`
}

// Identity projects the account into the identity shape handed to listeners.
func (a *Account) Identity(token string) *Identity {
	return &Identity{
		UID:           a.UID,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		Provider:      a.Provider,
		Token:         token,
	}
}

// AuthSession records an issued ID token so sign-out can revoke it.
type AuthSession struct {
	SessionID string `json:"id" dynamodbav:"session_id"`
	UID       string `json:"uid" dynamodbav:"uid"`
	Enable    bool   `json:"enable" dynamodbav:"enable"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt int64  `json:"updated_at" dynamodbav:"updated_at"`
}
