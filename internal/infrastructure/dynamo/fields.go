package dynamo

// DynamoDB attribute names used in keys and update expressions across all repos.
const (
	fieldUID           = "uid"
	fieldEmail         = "email"
	fieldEmailVerified = "email_verified"
	fieldGoogleSub     = "google_sub"
	fieldSessionID     = "session_id"
	fieldEnable        = "enable"
	fieldType          = "type"
	fieldUpdatedAt     = "updated_at"
)
