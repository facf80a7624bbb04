package models

import "time"

// UserRole is the user_roles join row. The composite primary key keeps each
// (user, role) pair unique.
type UserRole struct {
	UserID    uint `gorm:"primaryKey"`
	RoleID    uint `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (UserRole) TableName() string {
	return "user_roles"
}

// RolePermission is the role_permissions join row.
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey"`
	PermissionID uint `gorm:"primaryKey"`
	CreatedAt    time.Time
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// JoinTable describes a custom many2many join model for gorm's SetupJoinTable.
type JoinTable struct {
	Owner interface{}
	Field string
	Join  interface{}
}

func JoinTables() []JoinTable {
	return []JoinTable{
		{Owner: &User{}, Field: "Roles", Join: &UserRole{}},
		{Owner: &Role{}, Field: "Permissions", Join: &RolePermission{}},
	}
}

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Permission{}, &Role{}, &User{}, &UserRole{}, &RolePermission{},
		&Project{}, &Release{},
	}
}
