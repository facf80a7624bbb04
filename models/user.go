package models

import (
	"strconv"
	"time"

	"rbac-center/password"
)

// User logs in by Username, so usernames are unique in the store as well as
// checked by the user service.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	ProfileName string    `gorm:"size:255" json:"profile_name"`
	Password    string    `gorm:"size:255;not null" json:"-"` // Digest only, never the plaintext
	Roles       []Role    `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser builds an unsaved user and hashes plain straight away.
func NewUser(username, profileName, plain string, h password.Hasher) (*User, error) {
	u := &User{Username: username, ProfileName: profileName}
	if err := u.SetPassword(h, plain); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetPassword(h password.Hasher, plain string) error {
	digest, err := h.Hash(plain)
	if err != nil {
		return err
	}
	u.Password = digest
	return nil
}

func (u *User) CheckPassword(h password.Hasher, plain string) bool {
	return h.Verify(plain, u.Password)
}

// HasPermission walks the loaded roles and their loaded permissions.
func (u *User) HasPermission(name string) bool {
	for i := range u.Roles {
		if u.Roles[i].HasPermission(name) {
			return true
		}
	}
	return false
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// GetID returns the identifier stored in session tokens.
func (u *User) GetID() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

func (u *User) IsAuthenticated() bool { return true }

func (u *User) IsActive() bool { return true }

func (u *User) IsAnonymous() bool { return false }

func (u User) String() string {
	return "User(" + u.Username + ")"
}
