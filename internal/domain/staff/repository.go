package staff

import "context"

// Registry is the read-only view of the staff registry used by the ledger.
type Registry interface {
	GetShiftWindow(ctx context.Context, staffMemberID string) (ShiftWindow, error)
	GetTenancyContext(ctx context.Context, staffMemberID string) (TenancyContext, error)

	// ListActiveStaff returns active, non-deleted staff of a company.
	ListActiveStaff(ctx context.Context, companyID string) ([]StaffMember, error)

	// ListCompanyIDs returns every company with at least one active staff member.
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
