package enums

import (
	"fmt"
	"strings"
)

// UserRole is the platform role asserted by the identity provider.
type UserRole string

const (
	UserRoleStudent   UserRole = "student"
	UserRoleProfessor UserRole = "professor"
	UserRoleAdmin     UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleStudent,
	UserRoleProfessor,
	UserRoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole accepts any casing; an empty value defaults to student.
func ParseUserRole(value string) (UserRole, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return UserRoleStudent, nil
	}
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
