package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleStaff      = "staff"
	RoleBilling    = "billing"
	RoleSuperAdmin = "super_admin"
	RoleSupport    = "support" // internal support role, hidden from tenant UIs
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupport }
