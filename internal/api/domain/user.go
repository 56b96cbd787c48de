package domain

import "time"

// User is the stored identity. TOTPSecret is generated once at registration
// and never empty afterwards: two-factor auth is mandatory, not optional.
type User struct {
	ID           string
	Username     string // normalized: lowercase, trimmed
	PasswordHash string // argon2id PHC string, salt embedded
	PasswordSalt string // stored per identity; verification uses the PHC-embedded salt
	TOTPSecret   string // base32 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the projection safe to return over the wire. It never
// carries the password hash, salt, or TOTP secret.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public projects a User into its public view with the given primary role.
func (u User) Public(role string) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Role:      role,
		CreatedAt: u.CreatedAt,
	}
}
