package models

import "time"

// Admin is the authenticated console operator's identity as returned by
// the backend login and profile endpoints.
type Admin struct {
	ID       string `json:"_id"`      // Backend document ID.
	Email    string `json:"email"`    // Login email.
	Role     string `json:"role"`     // Backend role name.
	IsActive bool   `json:"isActive"` // Whether the admin account is enabled.
}

// AdminProfile is the extended admin record served by the profile screen.
type AdminProfile struct {
	ID        string    `json:"_id"`       // Backend document ID.
	Email     string    `json:"email"`     // Login email.
	Role      string    `json:"role"`      // Backend role name.
	IsActive  bool      `json:"isActive"`  // Whether the admin account is enabled.
	CreatedAt time.Time `json:"createdAt"` // Creation timestamp.
	UpdatedAt time.Time `json:"updatedAt"` // Last update timestamp.
}
