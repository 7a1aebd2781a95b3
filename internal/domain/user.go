package domain

import "time"

// Known role names. Admin outranks Viewer outranks Editor when choosing
// role-specific prompt guidance.
const (
	RoleNameAdmin  = "Admin"
	RoleNameViewer = "Viewer"
	RoleNameEditor = "Editor"
)

// User is an authenticated caller of the chat endpoint.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
