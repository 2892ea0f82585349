package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"leavehub/internal/platform/querier"
)

// The ledger methods below mutate leave_balances rows. Callers are expected
// to pass an open transaction as q so the balance mutation commits or rolls
// back together with the leave-request row change. Row locks (FOR UPDATE)
// serialize concurrent reservations against the same (employee, type, year).

const balanceColumns = "employee_id, leave_type_id, year, entitlement, used, remaining, carry_over, auto_created"

// GetOrCreateBalance locks and returns the balance row, seeding a missing one
// from the leave type's default quota. Seeded rows are flagged auto_created
// to distinguish them from rows written by the year-end rollover.
func (s *Store) GetOrCreateBalance(ctx context.Context, q querier.Querier, employeeID string, lt LeaveType, year int) (Balance, error) {
	balance, err := s.balanceForUpdate(ctx, q, employeeID, lt.ID, year)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, err
	}

	if _, err := q.Exec(ctx, `
    INSERT INTO leave_balances (employee_id, leave_type_id, year, entitlement, used, remaining, carry_over, auto_created)
    VALUES ($1, $2, $3, $4, 0, $4, 0, true)
    ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
  `, employeeID, lt.ID, year, lt.Quota.DefaultDays); err != nil {
		return Balance{}, err
	}
	return s.balanceForUpdate(ctx, q, employeeID, lt.ID, year)
}

func (s *Store) balanceForUpdate(ctx context.Context, q querier.Querier, employeeID, leaveTypeID string, year int) (Balance, error) {
	var b Balance
	err := q.QueryRow(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
    FOR UPDATE
  `, employeeID, leaveTypeID, year).Scan(&b.EmployeeID, &b.LeaveTypeID, &b.Year,
		&b.Entitlement, &b.Used, &b.Remaining, &b.CarryOver, &b.AutoCreated)
	return b, err
}

// Reserve checks the aggregate remaining balance on checkYear's row, one
// check regardless of how the request splits across years, then applies each
// year's share to that year's row. Untracked leave types reserve nothing.
func (s *Store) Reserve(ctx context.Context, q querier.Querier, employeeID string, lt LeaveType, checkYear int, splits []YearSplit, total decimal.Decimal) error {
	if !lt.BalanceTracked {
		return nil
	}

	current, err := s.GetOrCreateBalance(ctx, q, employeeID, lt, checkYear)
	if err != nil {
		return fmt.Errorf("load balance for %d: %w", checkYear, err)
	}
	if current.Remaining.LessThan(total) {
		return fmt.Errorf("%w: %s days remaining, %s requested",
			ErrInsufficientBalance, current.Remaining.String(), total.String())
	}

	for _, split := range splits {
		if _, err := s.GetOrCreateBalance(ctx, q, employeeID, lt, split.Year); err != nil {
			return fmt.Errorf("load balance for %d: %w", split.Year, err)
		}
		if err := s.applyUsage(ctx, q, employeeID, lt.ID, split.Year, split.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Refund is the exact inverse of Reserve, applied per split year. Callers
// pass the stored splits, or the single start-date-year fallback split when
// the request predates the split mechanism.
func (s *Store) Refund(ctx context.Context, q querier.Querier, employeeID string, lt LeaveType, splits []YearSplit) error {
	if !lt.BalanceTracked {
		return nil
	}
	for _, split := range splits {
		if _, err := s.GetOrCreateBalance(ctx, q, employeeID, lt, split.Year); err != nil {
			return fmt.Errorf("load balance for %d: %w", split.Year, err)
		}
		if err := s.applyUsage(ctx, q, employeeID, lt.ID, split.Year, split.Amount.Neg()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyUsage(ctx context.Context, q querier.Querier, employeeID, leaveTypeID string, year int, delta decimal.Decimal) error {
	tag, err := q.Exec(ctx, `
    UPDATE leave_balances
    SET used = used + $1, remaining = remaining - $1, updated_at = now()
    WHERE employee_id = $2 AND leave_type_id = $3 AND year = $4
  `, delta, employeeID, leaveTypeID, year)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("balance row missing for employee %s type %s year %d", employeeID, leaveTypeID, year)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, employeeID string) ([]Balance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE employee_id = $1
    ORDER BY year DESC, leave_type_id
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.EmployeeID, &b.LeaveTypeID, &b.Year,
			&b.Entitlement, &b.Used, &b.Remaining, &b.CarryOver, &b.AutoCreated); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Store) AllBalancesForYear(ctx context.Context, year int) ([]Balance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE year = $1
    ORDER BY employee_id, leave_type_id
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.EmployeeID, &b.LeaveTypeID, &b.Year,
			&b.Entitlement, &b.Used, &b.Remaining, &b.CarryOver, &b.AutoCreated); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
