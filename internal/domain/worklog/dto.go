package worklog

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// PUNCH DTOs
// ========================================

// LocationInput is the device-reported fix. Every field is optional on the
// wire; the geolocation validator decides what is usable.
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// IsEmpty reports whether the client sent no location at all.
func (l *LocationInput) IsEmpty() bool {
	return l == nil || (l.Latitude == nil && l.Longitude == nil && l.Accuracy == nil)
}

// MaxPunchClockSkew is how far a supplied punch timestamp may run ahead of
// server time.
const MaxPunchClockSkew = 2 * time.Minute

type PunchRequest struct {
	StaffMemberID string         `json:"-"`
	Timestamp     time.Time      `json:"-"`
	Location      *LocationInput `json:"-"`
	SourceIP      string         `json:"-"`
	ActorID       string         `json:"-"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StaffMemberID) {
		errs = append(errs, validator.ValidationError{
			Field:   "staff_member_id",
			Message: "staff_member_id is required",
		})
	}

	if r.Timestamp.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	}

	if validator.IsEmpty(r.ActorID) {
		errs = append(errs, validator.ValidationError{
			Field:   "actor_id",
			Message: "actor_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EntryResponse struct {
	ID                string           `json:"id,omitempty"`
	StaffMemberID     string           `json:"staff_member_id"`
	StaffMemberName   *string          `json:"staff_member_name,omitempty"`
	LogDate           string           `json:"log_date"`
	Status            string           `json:"status"`
	ClockIn           *string          `json:"clock_in"`
	ClockOut          *string          `json:"clock_out"`
	TotalHours        *decimal.Decimal `json:"total_hours"`
	LateMinutes       *int             `json:"late_minutes,omitempty"`
	EarlyLeaveMinutes *int             `json:"early_leave_minutes,omitempty"`
	OvertimeMinutes   *int             `json:"overtime_minutes,omitempty"`
	BreakMinutes      *int             `json:"break_minutes,omitempty"`
	ClockInLatitude   *float64         `json:"clock_in_latitude,omitempty"`
	ClockInLongitude  *float64         `json:"clock_in_longitude,omitempty"`
	ClockOutLatitude  *float64         `json:"clock_out_latitude,omitempty"`
	ClockOutLongitude *float64         `json:"clock_out_longitude,omitempty"`
	Anomalies         []string         `json:"anomalies,omitempty"`
	LeaveTypeID       *string          `json:"leave_type_id,omitempty"`
	ReconciledAt      *string          `json:"reconciled_at,omitempty"`
	CorrectionReason  *string          `json:"correction_reason,omitempty"`
	CreatedBy         string           `json:"created_by,omitempty"`
	UpdatedBy         *string          `json:"updated_by,omitempty"`
	CreatedAt         *string          `json:"created_at,omitempty"`
	UpdatedAt         *string          `json:"updated_at,omitempty"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ToResponse maps an entry to its API shape.
func ToResponse(e WorkLogEntry) EntryResponse {
	resp := EntryResponse{
		ID:                e.ID,
		StaffMemberID:     e.StaffMemberID,
		StaffMemberName:   e.StaffMemberName,
		LogDate:           e.LogDate.Format("2006-01-02"),
		Status:            string(e.Status),
		ClockIn:           formatTime(e.ClockIn),
		ClockOut:          formatTime(e.ClockOut),
		ClockInLatitude:   e.ClockInLocation.Latitude,
		ClockInLongitude:  e.ClockInLocation.Longitude,
		ClockOutLatitude:  e.ClockOutLocation.Latitude,
		ClockOutLongitude: e.ClockOutLocation.Longitude,
		LeaveTypeID:       e.LeaveTypeID,
		ReconciledAt:      formatTime(e.ReconciledAt),
		CorrectionReason:  e.CorrectionReason,
		CreatedBy:         e.CreatedBy,
		UpdatedBy:         e.UpdatedBy,
	}
	if !e.CreatedAt.IsZero() {
		resp.CreatedAt = formatTime(&e.CreatedAt)
	}
	if !e.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatTime(&e.UpdatedAt)
	}
	if e.Metrics != nil {
		m := *e.Metrics
		resp.TotalHours = &m.TotalHours
		resp.LateMinutes = &m.LateMinutes
		resp.EarlyLeaveMinutes = &m.EarlyLeaveMinutes
		resp.OvertimeMinutes = &m.OvertimeMinutes
		resp.BreakMinutes = &m.BreakMinutes
	}
	for _, a := range e.Anomalies {
		resp.Anomalies = append(resp.Anomalies, string(a))
	}
	return resp
}

// NotClockedInResponse is the placeholder returned by Status when there is
// no entry for the day.
func NotClockedInResponse(staffMemberID string, logDate time.Time) EntryResponse {
	return EntryResponse{
		StaffMemberID: staffMemberID,
		LogDate:       logDate.Format("2006-01-02"),
		Status:        string(StatusNotClockedIn),
	}
}

// ========================================
// CORRECTION DTOs
// ========================================

// CorrectionRequest replaces the raw punches of an entry. Derived fields are
// always recomputed; the request cannot set them.
type CorrectionRequest struct {
	EntryID   string  `json:"-"`
	CompanyID string  `json:"-"`
	ActorID   string  `json:"-"`
	ClockIn   *string `json:"clock_in"`  // RFC3339
	ClockOut  *string `json:"clock_out"` // RFC3339
	Reason    string  `json:"reason"`

	ClockInTime  *time.Time `json:"-"`
	ClockOutTime *time.Time `json:"-"`
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EntryID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.ClockIn == nil && r.ClockOut == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_in",
			Message: "at least one of clock_in or clock_out is required",
		})
	}

	if r.ClockIn != nil {
		if t, ok := validator.IsValidDateTime(*r.ClockIn); ok {
			r.ClockInTime = &t
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "clock_in",
				Message: "clock_in must be an RFC3339 timestamp",
			})
		}
	}

	if r.ClockOut != nil {
		if t, ok := validator.IsValidDateTime(*r.ClockOut); ok {
			r.ClockOutTime = &t
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "clock_out",
				Message: "clock_out must be an RFC3339 timestamp",
			})
		}
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// LIST DTOs
// ========================================

type EntryFilter struct {
	CompanyID string `json:"-"`

	// Search & Filter
	StaffMemberID *string `json:"staff_member_id,omitempty"`
	StartDate     *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate       *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status        *string `json:"status,omitempty"`
	Anomalous     bool    `json:"anomalous,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // log_date, clock_in, clock_out, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *EntryFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !IsValidStatus(*f.Status) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, absent, half_day, on_leave, holiday",
		})
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, hasStart = validator.IsValidDate(*f.StartDate); !hasStart {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if end, hasEnd = validator.IsValidDate(*f.EndDate); !hasEnd {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	// Sort validation
	if f.SortBy != "" {
		validSortFields := []string{"log_date", "clock_in", "clock_out", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: log_date, clock_in, clock_out, status",
			})
		}
	} else {
		f.SortBy = "log_date"
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListEntriesResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Entries    []EntryResponse `json:"entries"`
}

// ========================================
// SUMMARY DTOs
// ========================================

type SummaryFilter struct {
	CompanyID     string  `json:"-"`
	StaffMemberID *string `json:"staff_member_id,omitempty"`
	From          string  `json:"from"` // YYYY-MM-DD
	To            string  `json:"to"`   // YYYY-MM-DD

	FromDate time.Time `json:"-"`
	ToDate   time.Time `json:"-"`
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.CompanyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_id",
			Message: "company_id is required",
		})
	}

	from, okFrom := validator.IsValidDate(f.From)
	if !okFrom {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}
	to, okTo := validator.IsValidDate(f.To)
	if !okTo {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}

	if okFrom && okTo {
		if to.Before(from) {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must not be before from",
			})
		} else if to.Sub(from) > 366*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "period must not exceed one year",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	f.FromDate, f.ToDate = from, to
	return nil
}

// Summary is a period rollup. Unreconciled days are counted but excluded
// from every other total.
type Summary struct {
	CompanyID              string          `json:"company_id"`
	StaffMemberID          *string         `json:"staff_member_id,omitempty"`
	From                   string          `json:"from"`
	To                     string          `json:"to"`
	PresentDays            int             `json:"present_days"`
	AbsentDays             int             `json:"absent_days"`
	HalfDays               int             `json:"half_days"`
	OnLeaveDays            int             `json:"on_leave_days"`
	Holidays               int             `json:"holidays"`
	TotalLateMinutes       int             `json:"total_late_minutes"`
	TotalOvertimeMinutes   int             `json:"total_overtime_minutes"`
	TotalEarlyLeaveMinutes int             `json:"total_early_leave_minutes"`
	TotalHours             decimal.Decimal `json:"total_hours"`
	UnreconciledDays       int             `json:"unreconciled_days"`
}

type StaffSummary struct {
	StaffMemberID   string  `json:"staff_member_id"`
	StaffMemberName string  `json:"staff_member_name"`
	Summary         Summary `json:"summary"`
}

// ========================================
// SWEEP DTOs
// ========================================

// SweepRequest selects what the end-of-day sweep reconciles. With no date the
// sweep covers yesterday and today in each staff member's timezone. With no
// company it covers every company.
type SweepRequest struct {
	CompanyID *string `json:"company_id,omitempty"`
	Date      *string `json:"date,omitempty"` // YYYY-MM-DD
	ActorID   string  `json:"-"`

	LogDate *time.Time `json:"-"`
}

func (r *SweepRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != nil && *r.Date != "" {
		if d, ok := validator.IsValidDate(*r.Date); ok {
			r.LogDate = &d
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if r.CompanyID != nil && validator.IsEmpty(*r.CompanyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_id",
			Message: "company_id must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SweepResult struct {
	Companies      int `json:"companies"`
	StaffVisited   int `json:"staff_visited"`
	MarkersCreated int `json:"markers_created"`
	Finalized      int `json:"finalized"`
	Unchanged      int `json:"unchanged"`
	NotYetClosed   int `json:"not_yet_closed"`
	Unresolved     int `json:"unresolved"`
	Failed         int `json:"failed"`
	LockedOut      int `json:"locked_out"`
}

// Add accumulates another result into r.
func (r *SweepResult) Add(o SweepResult) {
	r.Companies += o.Companies
	r.StaffVisited += o.StaffVisited
	r.MarkersCreated += o.MarkersCreated
	r.Finalized += o.Finalized
	r.Unchanged += o.Unchanged
	r.NotYetClosed += o.NotYetClosed
	r.Unresolved += o.Unresolved
	r.Failed += o.Failed
	r.LockedOut += o.LockedOut
}
