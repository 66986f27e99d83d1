package auth

import "errors"

var (
	// ErrAuthenticationFailed covers both unknown usernames and wrong
	// passwords so the API never confirms which usernames exist.
	ErrAuthenticationFailed = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidHash indicates a stored password hash that bcrypt cannot
	// parse. This is corrupted data, not a wrong password.
	ErrInvalidHash = errors.New("malformed password hash")

	// ErrMalformedToken indicates input that is not a parseable token.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature indicates a token signed with a different key.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired indicates a well-formed, correctly signed token
	// whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)
