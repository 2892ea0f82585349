package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"leavehub/internal/platform/querier"
)

// BalanceRow joins a year's balance with the employee and leave type names
// for reporting output.
type BalanceRow struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	LeaveType    string          `json:"leaveType"`
	Year         int             `json:"year"`
	Entitlement  decimal.Decimal `json:"entitlement"`
	Used         decimal.Decimal `json:"used"`
	Remaining    decimal.Decimal `json:"remaining"`
	CarryOver    decimal.Decimal `json:"carryOver"`
}

type UsageRow struct {
	LeaveType    string          `json:"leaveType"`
	Requests     int             `json:"requests"`
	DaysApproved decimal.Decimal `json:"daysApproved"`
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) BalanceReport(ctx context.Context, year int) ([]BalanceRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT b.employee_id, e.first_name || ' ' || e.last_name, t.name, b.year,
           b.entitlement, b.used, b.remaining, b.carry_over
    FROM leave_balances b
    JOIN employees e ON e.id = b.employee_id
    JOIN leave_types t ON t.id = b.leave_type_id
    WHERE b.year = $1
    ORDER BY e.last_name, e.first_name, t.name
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRow
	for rows.Next() {
		var row BalanceRow
		if err := rows.Scan(&row.EmployeeID, &row.EmployeeName, &row.LeaveType, &row.Year,
			&row.Entitlement, &row.Used, &row.Remaining, &row.CarryOver); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UsageReport aggregates approved requests per leave type within a year.
func (s *Store) UsageReport(ctx context.Context, year int) ([]UsageRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.name, COUNT(1), COALESCE(SUM(s.amount), 0)
    FROM leave_request_year_splits s
    JOIN leave_requests r ON r.id = s.request_id
    JOIN leave_types t ON t.id = r.leave_type_id
    WHERE s.year = $1 AND r.status = 'approved'
    GROUP BY t.name
    ORDER BY t.name
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.LeaveType, &row.Requests, &row.DaysApproved); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
