package models

import (
	"encoding/json"
	"strings"
)

// Role classifies an account. The set is closed: anything the backend sends
// that is not one of the known values decodes to RoleUnknown.
type Role string

const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
	RolePromoter  Role = "promoter"
	RoleAdmin     Role = "admin"

	// RoleUnknown is the fallback arm for roles this client does not know yet.
	RoleUnknown Role = "unknown"
)

// KnownRoles lists every role the client can route.
var KnownRoles = []Role{RoleUser, RolePublisher, RolePromoter, RoleAdmin}

// ParseRole maps a raw value to a Role. It never fails.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range KnownRoles {
		if r == k {
			return r
		}
	}
	return RoleUnknown
}

// IsKnown reports whether r is one of KnownRoles.
func (r Role) IsKnown() bool {
	return ParseRole(string(r)) != RoleUnknown
}

func (r Role) String() string {
	return string(r)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*r = RoleUnknown
		return nil
	}
	*r = ParseRole(s)
	return nil
}
