package users

import "time"

type Role string

const (
	RoleOwner    Role = "owner"
	RoleCustomer Role = "customer"
)

// AppUser is this system's own profile record for a principal, keyed by
// the identity provider's UID. Role is assigned at creation and is
// never writable by the subject user afterwards.
type AppUser struct {
	UID          string    `firestore:"uid" json:"uid"`
	Email        string    `firestore:"email" json:"email"`
	Role         Role      `firestore:"role" json:"role"`
	Name         string    `firestore:"name" json:"name"`
	InfoComplete bool      `firestore:"infoComplete" json:"infoComplete"`
	Address      string    `firestore:"address,omitempty" json:"address,omitempty"`
	Phone        string    `firestore:"phone,omitempty" json:"phone,omitempty"`
	IsFromKota   *bool     `firestore:"isFromKota,omitempty" json:"isFromKota,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// ProfileUpdate is the only shape profile edits travel in. It has no
// Role or UID field, so those cannot be overwritten through this path.
type ProfileUpdate struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	InfoComplete bool   `json:"infoComplete"`
}

// NewCustomer returns the record created on first sign-in or sign-up.
func NewCustomer(uid, email, name string) *AppUser {
	now := time.Now().UTC()
	return &AppUser{
		UID:          uid,
		Email:        email,
		Role:         RoleCustomer,
		Name:         name,
		InfoComplete: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
