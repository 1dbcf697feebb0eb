package identity

// Role distinguishes the two caller classes the workflow recognises.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated caller, resolved by the external identity
// provider and passed explicitly into every operation. The workflow core
// carries no ambient session state.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
