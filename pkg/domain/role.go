package domain

// Role classifies the current user. It is assigned by the server and never chosen by the client.
type Role string

const (
	RoleNone    Role = ""
	RoleClient  Role = "client"
	RoleCleaner Role = "cleaner"
	RoleAdmin   Role = "admin"
)

// IsStaff reports whether the role belongs to hotel personnel.
func (r Role) IsStaff() bool {
	return r == RoleCleaner || r == RoleAdmin
}

// Known reports whether the server-side role is one the client knows how to present.
func (r Role) Known() bool {
	switch r {
	case RoleClient, RoleCleaner, RoleAdmin:
		return true
	}
	return false
}

// HomePath returns the area of the booking site the role lands on after sign-in.
func (r Role) HomePath() string {
	switch r {
	case RoleClient:
		return "/profile"
	case RoleCleaner:
		return "/cleaner"
	case RoleAdmin:
		return "/admin/rooms"
	default:
		return "/"
	}
}

func (r Role) String() string {
	return string(r)
}
