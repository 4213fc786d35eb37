package session

import (
	"github.com/kotamart/storefront-backend/internal/identity"
	"github.com/kotamart/storefront-backend/internal/users"
)

// Session is the combined, current view of "who is signed in and what
// do we know about them". User is only ever set when Identity is set;
// while the profile record is being fetched the session reports
// Loading instead.
type Session struct {
	Identity  *identity.Identity `json:"identity,omitempty"`
	User      *users.AppUser     `json:"user,omitempty"`
	Loading   bool               `json:"loading"`
	LastError string             `json:"lastError,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// EmailVerified reads the flag off the live identity. The provider is
// the source of truth for verification status, not the stored profile.
func (s Session) EmailVerified() bool {
	return s.Identity != nil && s.Identity.EmailVerified
}

func (s Session) Role() users.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s Session) InfoComplete() bool {
	return s.User != nil && s.User.InfoComplete
}
