package reportshandler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/reports"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
)

type Handler struct {
	Store *reports.Store
	Perms middleware.PermissionStore
}

func NewHandler(store *reports.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/balances", h.handleBalances)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/usage", h.handleUsage)
	})
}

func reportYear(r *http.Request) int {
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil && year > 0 {
			return year
		}
	}
	return time.Now().Year()
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year := reportYear(r)

	rows, err := h.Store.BalanceReport(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build balance report", requestID)
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		h.writeBalancesCSV(w, year, rows)
	case "pdf":
		h.writeBalancesPDF(w, requestID, year, rows)
	default:
		api.Success(w, rows, requestID)
	}
}

func (h *Handler) writeBalancesCSV(w http.ResponseWriter, year int, rows []reports.BalanceRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="balances-%d.csv"`, year))
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"employee", "leave_type", "year", "entitlement", "used", "remaining", "carry_over"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.EmployeeName,
			row.LeaveType,
			strconv.Itoa(row.Year),
			row.Entitlement.String(),
			row.Used.String(),
			row.Remaining.String(),
			row.CarryOver.String(),
		})
	}
	writer.Flush()
}

func (h *Handler) writeBalancesPDF(w http.ResponseWriter, requestID string, year int, rows []reports.BalanceRow) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Leave balances %d", year))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{70, 45, 30, 30, 30, 30}
	headers := []string{"Employee", "Leave type", "Entitlement", "Used", "Remaining", "Carry-over"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		cells := []string{
			row.EmployeeName,
			row.LeaveType,
			row.Entitlement.String(),
			row.Used.String(),
			row.Remaining.String(),
			row.CarryOver.String(),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="balances-%d.pdf"`, year))
	if err := pdf.Output(w); err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render balance report", requestID)
	}
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	rows, err := h.Store.UsageReport(r.Context(), reportYear(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build usage report", requestID)
		return
	}
	api.Success(w, rows, requestID)
}
