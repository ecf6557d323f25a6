package domain

import "time"

// User models a registered account. The password hash and confirmation state
// never leave the service layer.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Confirmed reports whether the account's email address has been verified.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}
