package domain

import "errors"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrUserNotFound = errors.New("user not found")
)

// CloseReason maps an authentication error to the wire-level rejection
// reason sent in the close frame. Unknown errors are reported as
// invalid_token so internals never leak to the client.
func CloseReason(err error) string {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	default:
		return "invalid_token"
	}
}
