package identity

import "fmt"

// Role is the closed set of account roles. It is fixed at account creation.
type Role uint8

const (
	// RoleUnknown is the zero value and never valid on a stored account.
	RoleUnknown Role = iota
	RoleAdmin
	RoleAgent
	RoleClient
)

// ParseRole maps the persisted tag to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "agent":
		return RoleAgent, nil
	case "client":
		return RoleClient, nil
	default:
		return RoleUnknown, OpError{Op: "identity.ParseRole", Kind: ErrInvalidInput, Msg: fmt.Sprintf("unknown role %q", s)}
	}
}

// String returns the persisted tag.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleAgent:
		return "agent"
	case RoleClient:
		return "client"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of admin, agent or client.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleClient:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, OpError{Op: "identity.Role.MarshalText", Kind: ErrInvalidInput, Msg: "invalid role"}
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
