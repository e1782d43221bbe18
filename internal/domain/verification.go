package domain

// Verification stores an e-mail confirmation code.
// PK: uid, SK: type. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Verification struct {
	UID       string `json:"uid" dynamodbav:"uid"`
	Type      string `json:"type" dynamodbav:"type"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}

const VerificationEmail = "email"
