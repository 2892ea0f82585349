package leavehandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"leavehub/internal/domain/audit"
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/leave"
	"leavehub/internal/domain/notifications"
	"leavehub/internal/platform/jobs"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
	"leavehub/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   *audit.Service
	Jobs    *jobs.Service
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Notify: notify, Audit: auditSvc, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/calendar", h.handleCalendar)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/calendar/export", h.handleCalendarExport)
		r.With(middleware.RequirePermission(auth.PermLeaveRollover, h.Perms)).Post("/rollover", h.handleRollover)
	})
}

func actorFrom(user auth.UserContext) leave.Actor {
	return leave.Actor{UserID: user.UserID, RoleName: user.RoleName}
}

// failFromError maps the domain sentinels onto HTTP statuses.
func failFromError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, leave.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
	case errors.Is(err, leave.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", "request was already processed", requestID)
	default:
		slog.Error("leave operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", requestID)
		return
	}
	api.Success(w, types, requestID)
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" {
		emp, err := h.Service.Employees.ByUserID(r.Context(), user.UserID)
		if errors.Is(err, pgx.ErrNoRows) {
			api.Success(w, []leave.Balance{}, requestID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to list balances", requestID)
			return
		}
		employeeID = emp.ID
	} else {
		allowed, err := h.Service.CanView(r.Context(), actorFrom(user), leave.Request{EmployeeID: employeeID})
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to list balances", requestID)
			return
		}
		if !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
			return
		}
	}

	balances, err := h.Service.ListBalances(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to list balances", requestID)
		return
	}
	api.Success(w, balances, requestID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	requests, total, err := h.Service.ListForActor(r.Context(), actorFrom(user), status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requests_list_failed", "failed to list requests", requestID)
		return
	}
	api.Success(w, map[string]any{
		"items": requests,
		"total": total,
	}, requestID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	req, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	allowed, err := h.Service.CanView(r.Context(), actorFrom(user), req)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "request_lookup_failed", "failed to load request", requestID)
		return
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}
	api.Success(w, req, requestID)
}

type createRequestPayload struct {
	EmployeeID             string `json:"employeeId"`
	LeaveTypeID            string `json:"leaveTypeId"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
	SlotKind               string `json:"slotKind"`
	HourlyStart            string `json:"hourlyStart"`
	HourlyEnd              string `json:"hourlyEnd"`
	Reason                 string `json:"reason"`
	MedicalCertificate     bool   `json:"medicalCertificate"`
	MedicalCertificateFile string `json:"medicalCertificateFile"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "leave type is required")
	startDate, _ := v.Date("startDate", payload.StartDate)
	endDate, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", startDate, "endDate", endDate)
	if v.Reject(w, requestID) {
		return
	}

	slotKind := leave.SlotKind(strings.TrimSpace(payload.SlotKind))
	if slotKind == "" {
		slotKind = leave.SlotFullDay
	}

	// Employees file for themselves; HR/Admin may file on someone's behalf.
	employeeID := payload.EmployeeID
	if employeeID == "" || user.RoleName == auth.RoleEmployee || user.RoleName == auth.RoleManager {
		emp, err := h.Service.Employees.ByUserID(r.Context(), user.UserID)
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusForbidden, "forbidden", "no employee record for this account", requestID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "request_create_failed", "failed to create request", requestID)
			return
		}
		employeeID = emp.ID
	}

	var certFile *string
	if file := strings.TrimSpace(payload.MedicalCertificateFile); file != "" {
		certFile = &file
	}

	result, err := h.Service.CreateRequest(r.Context(), leave.CreateRequestInput{
		EmployeeID:             employeeID,
		LeaveTypeID:            payload.LeaveTypeID,
		StartDate:              startDate,
		EndDate:                endDate,
		Slot:                   leave.Slot{Kind: slotKind, HourlyStart: payload.HourlyStart, HourlyEnd: payload.HourlyEnd},
		Reason:                 payload.Reason,
		MedicalCertificate:     payload.MedicalCertificate,
		MedicalCertificateFile: certFile,
	})
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	if result.ManagerUserID != "" {
		body := fmt.Sprintf("New leave request for %s to %s (%s days).",
			result.Request.StartDate.Format("2006-01-02"),
			result.Request.EndDate.Format("2006-01-02"),
			result.Request.Amount.String())
		if err := h.Notify.Notify(r.Context(), result.ManagerUserID, "Leave request awaiting approval", body); err != nil {
			slog.Warn("manager notification failed", "err", err)
		}
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.create", "leave_request", result.Request.ID, requestID, shared.ClientIP(r), nil, result.Request); err != nil {
		slog.Warn("audit leave.request.create failed", "err", err)
	}
	api.Created(w, result.Request, requestID)
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id := chi.URLParam(r, "requestID")

	req, err := h.Service.Approve(r.Context(), id, actorFrom(user))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	h.notifyEmployee(r, req, "Leave request approved",
		fmt.Sprintf("Your leave from %s to %s was approved.",
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02")))
	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.approve", "leave_request", id, requestID, shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.approve failed", "err", err)
	}
	api.Success(w, req, requestID)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id := chi.URLParam(r, "requestID")

	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	req, err := h.Service.Reject(r.Context(), id, actorFrom(user), payload.Reason)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	h.notifyEmployee(r, req, "Leave request rejected",
		fmt.Sprintf("Your leave from %s to %s was rejected: %s",
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), payload.Reason))
	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.reject", "leave_request", id, requestID, shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.reject failed", "err", err)
	}
	api.Success(w, req, requestID)
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	id := chi.URLParam(r, "requestID")

	req, err := h.Service.Cancel(r.Context(), id, actorFrom(user))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "leave.request.cancel", "leave_request", id, requestID, shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.cancel failed", "err", err)
	}
	api.Success(w, req, requestID)
}

func (h *Handler) notifyEmployee(r *http.Request, req leave.Request, title, body string) {
	emp, err := h.Service.Employees.Get(r.Context(), req.EmployeeID)
	if err != nil || emp.UserID == nil {
		return
	}
	if err := h.Notify.Notify(r.Context(), *emp.UserID, title, body); err != nil {
		slog.Warn("employee notification failed", "err", err)
	}
}

func (h *Handler) calendarWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := shared.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := shared.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = from.AddDate(0, 1, 0)
	}
	return from, to, nil
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, err := h.calendarWindow(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "invalid from/to dates", requestID)
		return
	}
	entries, err := h.Service.CalendarEntries(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	from, to, err := h.calendarWindow(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "invalid from/to dates", requestID)
		return
	}
	entries, err := h.Service.CalendarEntries(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-calendar.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"employee_id", "leave_type_id", "start_date", "end_date", "slot", "amount", "status"})
	for _, entry := range entries {
		_ = writer.Write([]string{
			entry.EmployeeID,
			entry.LeaveTypeID,
			entry.StartDate.Format("2006-01-02"),
			entry.EndDate.Format("2006-01-02"),
			string(entry.Slot.Kind),
			entry.Amount.String(),
			entry.Status,
		})
	}
	writer.Flush()
}

type rolloverPayload struct {
	FromYear int  `json:"fromYear"`
	ToYear   int  `json:"toYear"`
	Force    bool `json:"force"`
}

// handleRollover runs the year-end sweep inline through the jobs service so
// the run is recorded in job_runs and the caller receives the summary.
func (h *Handler) handleRollover(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload rolloverPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if payload.FromYear == 0 {
		payload.FromYear = time.Now().Year() - 1
	}
	if payload.ToYear == 0 {
		payload.ToYear = payload.FromYear + 1
	}

	details, err := h.Jobs.RunNow(r.Context(), jobs.JobBalanceRollover, func(ctx context.Context) (any, error) {
		return h.Service.Rollover(ctx, payload.FromYear, payload.ToYear, payload.Force)
	})
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "leave.rollover.run", "leave_balance",
		strconv.Itoa(payload.ToYear), requestID, shared.ClientIP(r), nil, details); err != nil {
		slog.Warn("audit leave.rollover.run failed", "err", err)
	}
	api.Success(w, details, requestID)
}
