package domain

import "time"

// User is a registered account. PasswordHash holds the bcrypt digest;
// the plaintext never reaches storage or logs.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
