package types

import "strings"

type FacetRole uint8

const (
	Role_None FacetRole = iota
	Role_Master
	Role_Slave
)

func (r FacetRole) String() string {
	return [...]string{"None", "Master", "Slave"}[r]
}

var RoleNameMap = map[string]FacetRole{
	"master":    Role_Master,
	"mortar":    Role_Master,
	"slave":     Role_Slave,
	"nonmortar": Role_Slave,
}

// NewFacetRole parses a role name, case insensitive, unknown names map to Role_None
func NewFacetRole(name string) FacetRole {
	if r, ok := RoleNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r
	}
	return Role_None
}
