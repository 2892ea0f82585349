package calendarhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"leavehub/internal/domain/audit"
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/calendar"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
	"leavehub/internal/transport/http/shared"
)

type Handler struct {
	Service *calendar.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *calendar.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/holidays", h.handleListHolidays)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Post("/holidays", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Delete("/holidays/{holidayID}", h.handleDeleteHoliday)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/working-saturdays", h.handleListWorkingSaturdays)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Post("/working-saturdays", h.handleCreateWorkingSaturday)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Delete("/working-saturdays/{saturdayID}", h.handleDeleteWorkingSaturday)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)).Put("/settings", h.handleUpdateSettings)
	})
}

func yearParam(r *http.Request) int {
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil && year > 0 {
			return year
		}
	}
	return time.Now().Year()
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	holidays, err := h.Service.ListHolidays(r.Context(), yearParam(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holidays_list_failed", "failed to list holidays", requestID)
		return
	}
	api.Success(w, holidays, requestID)
}

type holidayPayload struct {
	Date      string  `json:"date"`
	Name      string  `json:"name"`
	CompanyID *string `json:"companyId"`
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload holidayPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	v.Required("name", payload.Name, "holiday name is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Service.CreateHoliday(r.Context(), date, payload.Name, payload.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_create_failed", "failed to create holiday", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "calendar.holiday.create", "public_holiday", id, requestID, shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit calendar.holiday.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	holidayID := chi.URLParam(r, "holidayID")

	if err := h.Service.DeleteHoliday(r.Context(), holidayID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_delete_failed", "failed to delete holiday", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "calendar.holiday.delete", "public_holiday", holidayID, requestID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit calendar.holiday.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleListWorkingSaturdays(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	saturdays, err := h.Service.ListWorkingSaturdays(r.Context(), yearParam(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "working_saturdays_list_failed", "failed to list working saturdays", requestID)
		return
	}
	api.Success(w, saturdays, requestID)
}

type workingSaturdayPayload struct {
	Date      string          `json:"date"`
	StartTime string          `json:"startTime"`
	EndTime   string          `json:"endTime"`
	WorkHours decimal.Decimal `json:"workHours"`
}

func (h *Handler) handleCreateWorkingSaturday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload workingSaturdayPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	v.Required("startTime", payload.StartTime, "start time is required")
	v.Required("endTime", payload.EndTime, "end time is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Service.CreateWorkingSaturday(r.Context(), date, payload.StartTime, payload.EndTime, payload.WorkHours)
	if errors.Is(err, calendar.ErrNotSaturday) {
		api.Fail(w, http.StatusBadRequest, "not_saturday", "date must be a Saturday", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "working_saturday_create_failed", err.Error(), requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "calendar.working_saturday.create", "working_saturday", id, requestID, shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit calendar.working_saturday.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleDeleteWorkingSaturday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	saturdayID := chi.URLParam(r, "saturdayID")

	if err := h.Service.DeleteWorkingSaturday(r.Context(), saturdayID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "working_saturday_delete_failed", "failed to delete working saturday", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "calendar.working_saturday.delete", "working_saturday", saturdayID, requestID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit calendar.working_saturday.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_load_failed", "failed to load settings", requestID)
		return
	}
	api.Success(w, settings, requestID)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload calendar.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Service.UpdateSettings(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "settings_update_failed", err.Error(), requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "calendar.settings.update", "org_settings", "1", requestID, shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit calendar.settings.update failed", "err", err)
	}
	api.Success(w, payload, requestID)
}
