package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPermissionName is returned for empty names and names with
// leading or trailing whitespace.
var ErrInvalidPermissionName = errors.New("invalid permission name")

// Permission is a named capability, e.g. "projects.edit". Name is unique and
// never changes once created; only the description may be edited.
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p Permission) String() string {
	return "Permission(" + p.Name + ")"
}

// ValidatePermissionName checks the rule shared by every path that creates
// permissions. Names are stored exactly as given, so " edit" and "edit"
// would otherwise be distinct keys.
func ValidatePermissionName(name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidPermissionName, name)
	}
	return nil
}
