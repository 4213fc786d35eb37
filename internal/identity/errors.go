package identity

import "errors"

// The closed set of user-facing authentication errors. Raw provider
// error codes never leave this package.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("an account with this email already exists")
	ErrWeakPassword       = errors.New("password is too weak, use at least 6 characters")
	ErrMisconfigured      = errors.New("sign-in is not available right now, contact the store")
	ErrRateLimited        = errors.New("too many attempts, please try again later")
	ErrUnknown            = errors.New("something went wrong, please try again")
)

// mapProviderCode translates an Identity Toolkit error code into one of
// the sentinel errors above.
func mapProviderCode(code string) error {
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return ErrEmailInUse
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "OPERATION_NOT_ALLOWED", "CONFIGURATION_NOT_FOUND", "API_KEY_INVALID", "INVALID_API_KEY":
		return ErrMisconfigured
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return ErrRateLimited
	default:
		return ErrUnknown
	}
}

// UserMessage returns the displayable message for err, falling back to
// the unknown-error message for anything outside the closed set.
func UserMessage(err error) string {
	for _, known := range []error{
		ErrInvalidCredentials,
		ErrEmailInUse,
		ErrWeakPassword,
		ErrMisconfigured,
		ErrRateLimited,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrUnknown.Error()
}
