package user

import "errors"

var (
	ErrOwnerAccessRequired   = errors.New("owner access required")
	ErrManagerAccessRequired = errors.New("manager or owner access required")
	ErrStaffMemberRequired   = errors.New("access token is not bound to a staff member")
	ErrForbiddenStaffAccess  = errors.New("not allowed to access another staff member's attendance")
)
