package domain

import "errors"

// Identity provider error codes.
const (
	AuthUserNotFound        = "auth/user-not-found"
	AuthWrongPassword       = "auth/wrong-password"
	AuthInvalidCredential   = "auth/invalid-credential"
	AuthEmailAlreadyInUse   = "auth/email-already-in-use"
	AuthWeakPassword        = "auth/weak-password"
	AuthInvalidEmail        = "auth/invalid-email"
	AuthUserDisabled        = "auth/user-disabled"
	AuthTooManyRequests     = "auth/too-many-requests"
	AuthNetworkFailed       = "auth/network-request-failed"
	AuthPopupClosedByUser   = "auth/popup-closed-by-user"
	AuthInvalidVerification = "auth/invalid-verification-code"
)

const defaultAuthMessage = "Authentication failed"

var authMessages = map[string]string{
	AuthUserNotFound:        "No account found with this email",
	AuthWrongPassword:       "Incorrect password",
	AuthInvalidCredential:   "Invalid email or password",
	AuthEmailAlreadyInUse:   "This email is already in use",
	AuthWeakPassword:        "Password must be at least 6 characters",
	AuthInvalidEmail:        "Invalid email address",
	AuthUserDisabled:        "This account has been disabled",
	AuthTooManyRequests:     "Too many attempts, please try again later",
	AuthNetworkFailed:       "Network error, check your connection",
	AuthPopupClosedByUser:   "Sign-in window was closed",
	AuthInvalidVerification: "Invalid or expired verification code",
}

// AuthError is a coded failure returned by the identity provider.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError wraps err (which may be nil) with a provider code.
func NewAuthError(code string, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}

// AuthMessage maps a provider code to the user-facing string.
// Unknown codes fall back to a generic message.
func AuthMessage(code string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return defaultAuthMessage
}

// AuthMessageFor extracts the provider code from err, if any, and maps it.
func AuthMessageFor(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return AuthMessage(ae.Code)
	}
	return defaultAuthMessage
}
