package models

// AdminRole orders admin power: a lower value is more powerful. A route that
// requires "at least EventAdmin" therefore accepts any role <= EventAdmin.
type AdminRole int

const (
	SuperAdmin AdminRole = iota
	EventAdmin
)

// SuperAdminID is the sentinel id carried by super-admin tokens. The
// super-admin authenticates against config, not against the admins table.
const SuperAdminID int64 = -1

// IdentityKind distinguishes admin tokens from inviter tokens.
type IdentityKind int

const (
	IdentityAdmin IdentityKind = iota
	IdentityUser
)

// Identity is the immutable caller descriptor produced by the auth
// middleware and threaded through the request context. EventID is 0 only for
// the super-admin; Role is meaningful only for admins.
type Identity struct {
	Kind    IdentityKind
	ID      int64
	Role    AdminRole
	EventID int64
}

func (i Identity) IsAdmin() bool {
	return i.Kind == IdentityAdmin
}

func (i Identity) IsSuperAdmin() bool {
	return i.Kind == IdentityAdmin && i.Role == SuperAdmin
}
