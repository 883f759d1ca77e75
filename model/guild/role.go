package guild

import (
	"errors"
	"fmt"
)

var ErrRoleAlreadyExists = errors.New("role already exists")

// Role is a membership tier within a guild.
type Role struct {
	Name         Name
	Requirements RequirementsWithLogic
}

// Guild is a named collection of roles owned by an account.
type Guild struct {
	Name     Name
	Owner    AccountID
	Metadata []byte
	Roles    []Role
}

// Role returns the role with the given name.
func (g *Guild) Role(name Name) (Role, bool) {
	for _, role := range g.Roles {
		if role.Name == name {
			return role, true
		}
	}
	return Role{}, false
}

// AddRole appends the role, rejecting duplicate names.
func (g *Guild) AddRole(role Role) error {
	if _, exists := g.Role(role.Name); exists {
		return fmt.Errorf("role %q in guild %q: %w", role.Name, g.Name, ErrRoleAlreadyExists)
	}
	g.Roles = append(g.Roles, role)
	return nil
}

// Membership addresses a single role membership.
type Membership struct {
	Guild   Name
	Role    Name
	Account AccountID
}
