package auth

import "errors"

// Rejection reasons produced while authenticating a request. The Gatekeeper
// turns all of them into a 401 response; none reach business handlers.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrSessionRevoked    = errors.New("session expired or revoked")
	ErrTokenInvalid      = errors.New("token invalid")
)
