package domain

import "time"

// Profile holds the user-editable metadata associated 1:1 with a user.
// A row exists for every user that has completed at least one authenticated
// page load; creation is lazy. All four editable fields are optional free
// text and are replaced as a unit on every save.
type Profile struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Website   string    `json:"website,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
