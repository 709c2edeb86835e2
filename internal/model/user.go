package model

import "time"

// User is an account record. PasswordHash is a bcrypt hash and never leaves
// the service layer.
type User struct {
	Meta
	Email         string `json:"email"`
	Username      string `json:"username"`
	PasswordHash  string `json:"-"`
	ProfileImage  string `json:"profileImage,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	IsActive      bool   `json:"isActive"`
}

// Profile is the client-facing projection of a User, without credentials.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username,omitempty"`
	ProfileImage  string    `json:"profileImage,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToProfile converts the user to its client-facing shape.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		ProfileImage:  u.ProfileImage,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}
