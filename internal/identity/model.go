package identity

import "time"

// User is a row in the users table. A user is keyed by phone or email
// (whichever flow created it); AuthKey is empty until the first successful
// code verification.
type User struct {
	ID        string
	Phone     string
	Email     string
	Password  string
	AuthKey   string
	Premium   bool
	CreatedAt time.Time
}

// Verified reports whether the user holds an issued auth key.
func (u User) Verified() bool {
	return u.AuthKey != ""
}
