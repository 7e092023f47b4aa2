package parley

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates form input failed client-side validation.
	ErrValidation = errors.New("validation error")

	// ErrAuthRequired indicates an operation needs an authenticated session.
	ErrAuthRequired = errors.New("authentication required")

	// ErrProvider indicates the identity provider rejected a request.
	ErrProvider = errors.New("identity provider error")

	// ErrNetwork indicates the chat backend was unreachable or reported failure.
	ErrNetwork = errors.New("network error")

	// ErrNotFound indicates the requested conversation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyMessage indicates Submit was called with blank text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy indicates the controller is sending or loading.
	ErrBusy = errors.New("controller busy")

	// ErrCoolingDown indicates the send cooldown has not expired yet.
	ErrCoolingDown = errors.New("cooldown active")
)

// ValidationError reports a client-side form check failure. Message is the
// user-facing text.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RemoteError reports a failed exchange with the chat backend. Message is
// shown to the user verbatim; Err, when set, is the underlying cause.
type RemoteError struct {
	Message string
	Err     error
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrNetwork.
func (e *RemoteError) Is(target error) bool { return target == ErrNetwork }

// AuthErrorKind is the normalized category of an identity provider failure.
type AuthErrorKind int

const (
	AuthUnknown AuthErrorKind = iota
	AuthInvalidCredentials
	AuthEmailInUse
	AuthWeakPassword
	AuthInvalidEmail
	AuthAccountDisabled
	AuthRateLimited
	AuthNetworkFailure
)

var authMessages = map[AuthErrorKind]string{
	AuthUnknown:            "Something went wrong. Please try again.",
	AuthInvalidCredentials: "Incorrect email or password.",
	AuthEmailInUse:         "An account with this email already exists.",
	AuthWeakPassword:       "Password is too weak. Use at least 6 characters.",
	AuthInvalidEmail:       "Email address is not valid.",
	AuthAccountDisabled:    "This account has been disabled.",
	AuthRateLimited:        "Too many attempts. Please wait and try again.",
	AuthNetworkFailure:     "Could not reach the sign-in service. Check your connection.",
}

func (k AuthErrorKind) String() string {
	switch k {
	case AuthInvalidCredentials:
		return "invalid-credentials"
	case AuthEmailInUse:
		return "email-already-registered"
	case AuthWeakPassword:
		return "weak-password"
	case AuthInvalidEmail:
		return "invalid-email-format"
	case AuthAccountDisabled:
		return "account-disabled"
	case AuthRateLimited:
		return "rate-limited"
	case AuthNetworkFailure:
		return "network-failure"
	default:
		return "unknown"
	}
}

// Message returns the fixed user-facing text for the kind.
func (k AuthErrorKind) Message() string {
	if msg, ok := authMessages[k]; ok {
		return msg
	}
	return authMessages[AuthUnknown]
}

// AuthError is a normalized identity provider failure.
type AuthError struct {
	Kind AuthErrorKind
	Err  error // provider-specific cause, for logs only
}

func (e *AuthError) Error() string { return e.Kind.Message() }

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches ErrProvider, and ErrNetwork for transport failures.
func (e *AuthError) Is(target error) bool {
	if target == ErrProvider {
		return true
	}
	return target == ErrNetwork && e.Kind == AuthNetworkFailure
}

// AuthErrorKindOf returns the kind of the first AuthError in err's chain,
// or AuthUnknown.
func AuthErrorKindOf(err error) AuthErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return AuthUnknown
}
