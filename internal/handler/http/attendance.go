package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/user"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/handler/http/middleware"
	"github.com/cmlabs-hris/worklog-ledger/internal/handler/http/response"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/report"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	ClockInFor(w http.ResponseWriter, r *http.Request)
	ClockOutFor(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Sweep(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	ExportSummary(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	workLogService worklog.Service
	staffRegistry  staff.Registry
	now            func() time.Time
}

func NewAttendanceHandler(workLogService worklog.Service, staffRegistry staff.Registry) AttendanceHandler {
	return &attendanceHandlerImpl{
		workLogService: workLogService,
		staffRegistry:  staffRegistry,
		now:            time.Now,
	}
}

// punchBody is the optional JSON body of a clock-in or clock-out. Timestamp
// is only honoured on punches recorded on behalf of a staff member; every
// other punch is taken at server time.
type punchBody struct {
	worklog.LocationInput
	Timestamp *string `json:"timestamp"`
}

func (h *attendanceHandlerImpl) decodePunch(r *http.Request, staffMemberID string, actor user.Actor, onBehalf bool) (worklog.PunchRequest, error) {
	var body punchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return worklog.PunchRequest{}, err
	}

	req := worklog.PunchRequest{
		StaffMemberID: staffMemberID,
		Timestamp:     h.now(),
		SourceIP:      clientIP(r),
		ActorID:       actor.UserID,
	}
	if !body.LocationInput.IsEmpty() {
		loc := body.LocationInput
		req.Location = &loc
	}
	if onBehalf && body.Timestamp != nil && *body.Timestamp != "" {
		ts, ok := validator.IsValidDateTime(*body.Timestamp)
		if !ok {
			return worklog.PunchRequest{}, validator.ValidationErrors{{
				Field:   "timestamp",
				Message: "timestamp must be an RFC3339 timestamp",
			}}
		}
		if ts.After(req.Timestamp.Add(worklog.MaxPunchClockSkew)) {
			return worklog.PunchRequest{}, worklog.ErrPunchInFuture
		}
		req.Timestamp = ts
	}
	return req, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *attendanceHandlerImpl) punch(w http.ResponseWriter, r *http.Request, staffMemberID string, clockIn bool, onBehalf bool) {
	actor, _ := middleware.ActorFromContext(r.Context())

	req, err := h.decodePunch(r, staffMemberID, actor, onBehalf)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) || errors.Is(err, worklog.ErrPunchInFuture) {
			response.HandleError(w, err)
			return
		}
		slog.Error("Failed to decode punch body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if clockIn {
		result, err := h.workLogService.ClockIn(r.Context(), req)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Created(w, "Clock in successful", result)
		return
	}

	result, err := h.workLogService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Clock out successful", result)
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	h.punch(w, r, actor.StaffMemberID, true, false)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	h.punch(w, r, actor.StaffMemberID, false, false)
}

// authorizeStaff checks that the caller may act for staffMemberID and that
// the staff member belongs to the caller's company.
func (h *attendanceHandlerImpl) authorizeStaff(r *http.Request, staffMemberID string) error {
	actor, _ := middleware.ActorFromContext(r.Context())
	if !actor.CanActFor(staffMemberID) {
		return user.ErrForbiddenStaffAccess
	}
	if staffMemberID == actor.StaffMemberID {
		return nil
	}

	tenancy, err := h.staffRegistry.GetTenancyContext(r.Context(), staffMemberID)
	if err != nil {
		return err
	}
	if tenancy.CompanyID != actor.CompanyID {
		// another company's staff is reported as missing
		return staff.ErrStaffMemberNotFound
	}
	return nil
}

// ClockInFor implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockInFor(w http.ResponseWriter, r *http.Request) {
	staffMemberID := chi.URLParam(r, "staffMemberID")
	if err := h.authorizeStaff(r, staffMemberID); err != nil {
		response.HandleError(w, err)
		return
	}
	h.punch(w, r, staffMemberID, true, true)
}

// ClockOutFor implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOutFor(w http.ResponseWriter, r *http.Request) {
	staffMemberID := chi.URLParam(r, "staffMemberID")
	if err := h.authorizeStaff(r, staffMemberID); err != nil {
		response.HandleError(w, err)
		return
	}
	h.punch(w, r, staffMemberID, false, true)
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	staffMemberID := actor.StaffMemberID
	if s := r.URL.Query().Get("staff_member_id"); s != "" {
		if err := h.authorizeStaff(r, s); err != nil {
			response.HandleError(w, err)
			return
		}
		staffMemberID = s
	}
	if staffMemberID == "" {
		response.HandleError(w, user.ErrStaffMemberRequired)
		return
	}

	result, err := h.workLogService.Status(r.Context(), staffMemberID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func parseEntryFilter(r *http.Request) worklog.EntryFilter {
	q := r.URL.Query()
	filter := worklog.EntryFilter{}

	if staffMemberID := q.Get("staff_member_id"); staffMemberID != "" {
		filter.StaffMemberID = &staffMemberID
	}

	// Date range filters
	if startDate := q.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := q.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	if status := q.Get("status"); status != "" {
		filter.Status = &status
	}
	if anomalous, err := strconv.ParseBool(q.Get("anomalous")); err == nil {
		filter.Anomalous = anomalous
	}

	// Pagination
	page := 1
	if p := q.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := q.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	// Sorting
	filter.SortBy = q.Get("sort_by")
	filter.SortOrder = q.Get("sort_order")

	return filter
}

func (h *attendanceHandlerImpl) list(w http.ResponseWriter, r *http.Request, filter worklog.EntryFilter) {
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.workLogService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results.Entries, &response.Meta{
		Page:       results.Page,
		Limit:      results.Limit,
		TotalItems: results.TotalCount,
		TotalPages: results.TotalPages,
	})
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	filter := parseEntryFilter(r)
	filter.CompanyID = actor.CompanyID
	filter.StaffMemberID = &actor.StaffMemberID

	h.list(w, r, filter)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	filter := parseEntryFilter(r)
	filter.CompanyID = actor.CompanyID

	h.list(w, r, filter)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	result, err := h.workLogService.Get(r.Context(), id, actor.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !actor.CanActFor(result.StaffMemberID) {
		response.HandleError(w, user.ErrForbiddenStaffAccess)
		return
	}

	response.Success(w, result)
}

// Correct implements AttendanceHandler.
func (h *attendanceHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req worklog.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode correction body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EntryID = chi.URLParam(r, "id")
	req.CompanyID = actor.CompanyID
	req.ActorID = actor.UserID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.workLogService.Correct(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance corrected", result)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.workLogService.Delete(r.Context(), id, actor.CompanyID, actor.UserID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance deleted", nil)
}

// Sweep implements AttendanceHandler. It only ever reconciles the caller's
// company.
func (h *attendanceHandlerImpl) Sweep(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	req := worklog.SweepRequest{
		CompanyID: &actor.CompanyID,
		ActorID:   actor.UserID,
	}
	if date := r.URL.Query().Get("date"); date != "" {
		req.Date = &date
	}

	result, err := h.workLogService.Sweep(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if result.LockedOut > 0 {
		response.HandleError(w, worklog.ErrSweepAlreadyInProgress)
		return
	}

	response.SuccessWithMessage(w, "Sweep completed", result)
}

func (h *attendanceHandlerImpl) summaryFilter(r *http.Request) (worklog.SummaryFilter, error) {
	actor, _ := middleware.ActorFromContext(r.Context())
	q := r.URL.Query()

	filter := worklog.SummaryFilter{
		CompanyID: actor.CompanyID,
		From:      q.Get("from"),
		To:        q.Get("to"),
	}
	if s := q.Get("staff_member_id"); s != "" {
		filter.StaffMemberID = &s
	}
	if !actor.IsManager() {
		if actor.StaffMemberID == "" {
			return filter, user.ErrStaffMemberRequired
		}
		if filter.StaffMemberID != nil && *filter.StaffMemberID != actor.StaffMemberID {
			return filter, user.ErrForbiddenStaffAccess
		}
		filter.StaffMemberID = &actor.StaffMemberID
	}

	return filter, nil
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	filter, err := h.summaryFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.workLogService.Summarize(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) ExportSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := h.summaryFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	rows, err := h.workLogService.SummarizeByStaff(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	write, contentType, ext := report.WriteSummaryXLSX, report.ContentType, "xlsx"
	if r.URL.Query().Get("format") == "pdf" {
		write, contentType, ext = report.WriteSummaryPDF, report.PDFContentType, "pdf"
	}

	filename := fmt.Sprintf("attendance_%s_%s.%s", strings.ReplaceAll(filter.From, "-", ""), strings.ReplaceAll(filter.To, "-", ""), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := write(w, filter.From, filter.To, rows); err != nil {
		slog.Error("Failed to write summary export", "error", err, "company_id", filter.CompanyID, "format", ext)
	}
}
