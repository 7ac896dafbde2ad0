package models

import "strings"

// Authority strings granted through roles
const (
	AuthorityUserRead   = "user:read"
	AuthorityUserCreate = "user:create"
	AuthorityUserUpdate = "user:update"
	AuthorityUserDelete = "user:delete"
)

// Role is a closed set of account roles
type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleHR         Role = "ROLE_HR"
	RoleManager    Role = "ROLE_MANAGER"
	RoleAdmin      Role = "ROLE_ADMIN"
	RoleSuperAdmin Role = "ROLE_SUPER_ADMIN"
)

var roleAuthorities = map[Role][]string{
	RoleUser:       {AuthorityUserRead},
	RoleHR:         {AuthorityUserRead, AuthorityUserUpdate},
	RoleManager:    {AuthorityUserRead, AuthorityUserUpdate},
	RoleAdmin:      {AuthorityUserRead, AuthorityUserCreate, AuthorityUserUpdate},
	RoleSuperAdmin: {AuthorityUserRead, AuthorityUserCreate, AuthorityUserUpdate, AuthorityUserDelete},
}

// ParseRole resolves a role name case-insensitively
func ParseRole(name string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := roleAuthorities[role]; !ok {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Authorities returns a fresh copy of the role's ordered authority list.
// Callers store the copy on the account, so it must never alias the table.
func (r Role) Authorities() []string {
	authorities := roleAuthorities[r]
	out := make([]string, len(authorities))
	copy(out, authorities)
	return out
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// HasAuthority checks if an authority list grants the required authority
func HasAuthority(authorities []string, required string) bool {
	for _, authority := range authorities {
		if authority == required {
			return true
		}
	}
	return false
}
