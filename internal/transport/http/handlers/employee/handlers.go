package employeehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"leavehub/internal/domain/audit"
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/employee"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
	"leavehub/internal/transport/http/shared"
)

type Handler struct {
	Store *employee.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *employee.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/me", h.handleMe)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
	})
	r.Route("/delegates", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Get("/", h.handleListDelegates)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/", h.handleCreateDelegate)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Delete("/{delegateID}", h.handleDeleteDelegate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	employees, err := h.Store.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_list_failed", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	emp, err := h.Store.ByUserID(r.Context(), user.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "no employee record for this account", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to load employee", requestID)
		return
	}
	api.Success(w, emp, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	emp, err := h.Store.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to load employee", requestID)
		return
	}
	api.Success(w, emp, requestID)
}

type employeePayload struct {
	UserID    *string `json:"userId"`
	CompanyID string  `json:"companyId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	ManagerID *string `json:"managerId"`
	HireDate  string  `json:"hireDate"`
	Status    string  `json:"status"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("companyId", payload.CompanyID, "company id is required")
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	v.Enum("status", payload.Status, []string{employee.StatusActive, employee.StatusInactive}, "must be active or inactive")
	if v.Reject(w, requestID) {
		return
	}

	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if status == "" {
		status = employee.StatusActive
	}

	id, err := h.Store.Create(r.Context(), employee.Employee{
		UserID:    payload.UserID,
		CompanyID: payload.CompanyID,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		ManagerID: payload.ManagerID,
		HireDate:  hireDate,
		Status:    status,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "employee.create", "employee", id, requestID, shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit employee.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	existing, err := h.Store.Get(r.Context(), employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to load employee", requestID)
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	v.Enum("status", payload.Status, []string{employee.StatusActive, employee.StatusInactive}, "must be active or inactive")
	if v.Reject(w, requestID) {
		return
	}

	updated := existing
	updated.FirstName = payload.FirstName
	updated.LastName = payload.LastName
	updated.Email = payload.Email
	updated.ManagerID = payload.ManagerID
	updated.HireDate = hireDate
	if payload.Status != "" {
		updated.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	}

	if err := h.Store.Update(r.Context(), updated); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "employee.update", "employee", employeeID, requestID, shared.ClientIP(r), existing, updated); err != nil {
		slog.Warn("audit employee.update failed", "err", err)
	}
	api.Success(w, updated, requestID)
}

type delegatePayload struct {
	DelegateID string `json:"delegateId"`
	StartsOn   string `json:"startsOn"`
	EndsOn     string `json:"endsOn"`
}

// handleCreateDelegate lets a manager hand approval authority to a colleague
// for a bounded window, e.g. their own vacation.
func (h *Handler) handleCreateDelegate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	manager, err := h.Store.ByUserID(r.Context(), user.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record for this account", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delegate_create_failed", "failed to create delegation", requestID)
		return
	}

	var payload delegatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("delegateId", payload.DelegateID, "delegate id is required")
	startsOn, _ := v.Date("startsOn", payload.StartsOn)
	endsOn, _ := v.Date("endsOn", payload.EndsOn)
	v.DateOrder("startsOn", startsOn, "endsOn", endsOn)
	if payload.DelegateID == manager.ID {
		v.Add("delegateId", "cannot delegate to yourself")
	}
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreateDelegate(r.Context(), employee.Delegate{
		ManagerID:  manager.ID,
		DelegateID: payload.DelegateID,
		StartsOn:   startsOn,
		EndsOn:     endsOn,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delegate_create_failed", "failed to create delegation", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "delegate.create", "approval_delegate", id, requestID, shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit delegate.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleListDelegates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	manager, err := h.Store.ByUserID(r.Context(), user.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Success(w, []employee.Delegate{}, requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delegates_list_failed", "failed to list delegations", requestID)
		return
	}
	delegates, err := h.Store.ListDelegates(r.Context(), manager.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delegates_list_failed", "failed to list delegations", requestID)
		return
	}
	api.Success(w, delegates, requestID)
}

func (h *Handler) handleDeleteDelegate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	delegateID := chi.URLParam(r, "delegateID")

	manager, err := h.Store.ByUserID(r.Context(), user.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "delegation not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delegate_delete_failed", "failed to delete delegation", requestID)
		return
	}

	deleted, err := h.Store.DeleteDelegate(r.Context(), delegateID, manager.ID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delegate_delete_failed", "failed to delete delegation", requestID)
		return
	}
	if !deleted {
		api.Fail(w, http.StatusNotFound, "not_found", "delegation not found", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "delegate.delete", "approval_delegate", delegateID, requestID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit delegate.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}
