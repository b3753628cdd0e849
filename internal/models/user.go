// internal/models/user.go
package models

import "time"

// User roles. The workflow only ever transitions client -> provider, as a
// side effect of approving that user's application.
const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// User is the directory record owned by the user store. Bio, PhoneNumber and
// ServiceAddress are overwritten from the approved application in the same
// transaction that flips Role.
type User struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Bio            *string   `json:"bio,omitempty"`
	PhoneNumber    *string   `json:"phoneNumber,omitempty"`
	ServiceAddress *string   `json:"serviceAddress,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
