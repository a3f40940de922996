package domain

type User struct {
	ID        int64  `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"password,omitempty" db:"password"`
	Role      string `json:"role" db:"role"`
	CreatedAt string `json:"created_at,omitempty" db:"created_at"`
}

const (
	RoleManager   = "manager"
	RoleBartender = "bartender"
	RoleWaiter    = "waiter"
	RoleGeneral   = "general"
)

// ValidRole reports whether role is one of the staff roles the system knows.
func ValidRole(role string) bool {
	switch role {
	case RoleManager, RoleBartender, RoleWaiter, RoleGeneral:
		return true
	}
	return false
}
