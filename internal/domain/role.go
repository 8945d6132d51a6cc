package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Role enumerates the four access levels. Numeric values are stored in the
// database and carried in tokens, so they must stay stable.
type Role int

const (
	RoleDirection           Role = 1
	RolePlatformCoordinator Role = 2
	RoleProjectLeader       Role = 3
	RoleAdministrationUser  Role = 4
)

var roleNames = map[Role]string{
	RoleDirection:           "Direccion",
	RolePlatformCoordinator: "CoordinadorPlataforma",
	RoleProjectLeader:       "LiderProyecto",
	RoleAdministrationUser:  "UsuarioAdministracion",
}

// String returns the wire name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Role(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole resolves a role from its wire name (case-insensitive) or its
// numeric code.
func ParseRole(value string) (Role, error) {
	value = strings.TrimSpace(value)
	for role, name := range roleNames {
		if strings.EqualFold(name, value) {
			return role, nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil && Role(n).Valid() {
		return Role(n), nil
	}
	return 0, fmt.Errorf("unknown role %q", value)
}
