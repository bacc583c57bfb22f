package domain

const (
	RoleManager = "manager"
	RoleUser    = "user"
)

// Principal identifies the caller of an ownership-scoped operation. The
// manager flag is the only access-control mechanism: a manager may reach
// any account or loan, everyone else only their own.
type Principal struct {
	Username string
	Manager  bool
}

// CanAccess reports whether the principal may operate on a resource owned
// by the given username.
func (p Principal) CanAccess(ownerUsername string) bool {
	return p.Manager || p.Username == ownerUsername
}

// User is a stored credential row. Passwords are kept in plain text, as the
// system predates any hashing scheme.
type User struct {
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
	Role     string `db:"role" json:"role"`
}

func (u User) Principal() Principal {
	return Principal{Username: u.Username, Manager: u.Role == RoleManager}
}
