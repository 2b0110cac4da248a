package domain

import "fmt"

// Role is the closed set of user roles
type Role string

const (
	RoleOperator Role = "Operational"
	RoleAdmin    Role = "Admin"
)

// ParseRole maps a stored user type onto a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOperator, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Caller is the authenticated identity a request acts for
type Caller interface {
	// OperatorCode is the user code tasks are assigned against
	OperatorCode() string
	// CanActOnAnyTask is true for elevated roles
	CanActOnAnyTask() bool
	// Credential is the bearer token forwarded to downstream services
	Credential() string
}

// Principal is the Caller produced by token authentication
type Principal struct {
	CodUser     string
	Name        string
	Role        Role
	BearerToken string
}

func (p Principal) OperatorCode() string  { return p.CodUser }
func (p Principal) CanActOnAnyTask() bool { return p.Role == RoleAdmin }
func (p Principal) Credential() string    { return p.BearerToken }
