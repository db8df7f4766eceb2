package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can review and correct the ledger
	RoleEmployee Role = "employee" // Regular staff member
)

// Actor is the authenticated caller, taken from access token claims.
// Tenancy on the actor scopes what the caller may see; the tenancy written
// on a ledger entry always comes from the staff registry.
type Actor struct {
	UserID         string
	StaffMemberID  string
	OrganizationID string
	CompanyID      string
	Role           Role
}

// IsOwner checks if actor is company owner
func (a Actor) IsOwner() bool {
	return a.Role == RoleOwner
}

// IsManager checks if actor is manager or owner
func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleOwner
}

// CanActFor reports whether the actor may read or punch for staffMemberID.
func (a Actor) CanActFor(staffMemberID string) bool {
	return a.StaffMemberID == staffMemberID || a.IsManager()
}
