package model

type Role string

const (
	RoleClient     Role = "client"
	RoleSeller     Role = "seller"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleSeller || r == RoleSuperAdmin
}

// Principal is the authenticated caller, resolved once at login.
// ID is the client's user id, the seller profile id or the superadmin's user id depending on Role.
type Principal struct {
	Role      Role
	ID        int64
	Username  string
	SessionID string
}

func ClientPrincipal(id int64, username, session string) Principal {
	return Principal{Role: RoleClient, ID: id, Username: username, SessionID: session}
}

func SellerPrincipal(id int64, username, session string) Principal {
	return Principal{Role: RoleSeller, ID: id, Username: username, SessionID: session}
}

func SuperAdminPrincipal(id int64, username, session string) Principal {
	return Principal{Role: RoleSuperAdmin, ID: id, Username: username, SessionID: session}
}

func (p Principal) IsClient() bool     { return p.Role == RoleClient && p.ID > 0 }
func (p Principal) IsSeller() bool     { return p.Role == RoleSeller && p.ID > 0 }
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin && p.ID > 0 }
