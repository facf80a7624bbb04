package models

import "time"

// Role is a named bundle of permissions.
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;uniqueIndex;not null" json:"name"`
	DisplayName string       `gorm:"size:255" json:"display_name"`
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasPermission reports whether name is among the loaded permissions. The
// caller is responsible for preloading Permissions.
func (r *Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// PermissionNames lists the loaded permission names in load order.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

func (r Role) String() string {
	return "Role(" + r.Name + ")"
}
