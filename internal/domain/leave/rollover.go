package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"leavehub/internal/platform/querier"
)

type RolloverSummary struct {
	FromYear    int `json:"fromYear"`
	ToYear      int `json:"toYear"`
	Employees   int `json:"employees"`
	RowsWritten int `json:"rowsWritten"`
	RowsSkipped int `json:"rowsSkipped"`
}

// carryOverAmount computes the days carried into the new year:
// min(priorRemaining, maxCarryOverDays), never negative, zero when the leave
// type disallows carry-over.
func carryOverAmount(priorRemaining decimal.Decimal, quota QuotaSettings) decimal.Decimal {
	if !quota.CarryOverAllowed {
		return decimal.Zero
	}
	carry := priorRemaining
	if carry.GreaterThan(quota.MaxCarryOverDays) {
		carry = quota.MaxCarryOverDays
	}
	if carry.IsNegative() {
		return decimal.Zero
	}
	return carry
}

// tenureYears is the number of whole years between hireDate and on.
func tenureYears(hireDate, on time.Time) int {
	years := on.Year() - hireDate.Year()
	anniversary := hireDate.AddDate(years, 0, 0)
	if anniversary.After(on) {
		years--
	}
	return years
}

// Rollover performs the year-end sweep: for every active employee and every
// balance-tracked leave type the employee is tenured for, it writes the
// toYear balance row with fresh entitlement plus capped carry-over. A toYear
// row that was only auto-created (leave already taken in the new year before
// the sweep ran) keeps its used amount; a row the sweep itself already wrote
// is left untouched unless force is set. The whole sweep is one transaction.
func (s *Service) Rollover(ctx context.Context, fromYear, toYear int, force bool) (RolloverSummary, error) {
	summary := RolloverSummary{FromYear: fromYear, ToYear: toYear}
	if toYear <= fromYear {
		return summary, fmt.Errorf("%w: target year must follow source year", ErrValidation)
	}

	types, err := s.Store.ListTypes(ctx)
	if err != nil {
		return summary, err
	}

	employees, err := s.Employees.ActiveEmployeeIDs(ctx)
	if err != nil {
		return summary, err
	}

	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tenureCutoff := time.Date(toYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, employeeID := range employees {
		hireDate, err := s.Employees.HireDate(ctx, employeeID)
		if err != nil {
			return summary, fmt.Errorf("hire date for %s: %w", employeeID, err)
		}
		for _, lt := range types {
			if !lt.BalanceTracked {
				continue
			}
			if tenureYears(hireDate, tenureCutoff) < lt.Quota.MinTenureYears {
				continue
			}

			wrote, err := s.rolloverOne(ctx, tx, employeeID, lt, fromYear, toYear, force)
			if err != nil {
				return summary, err
			}
			if wrote {
				summary.RowsWritten++
			} else {
				summary.RowsSkipped++
			}
		}
		summary.Employees++
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Service) rolloverOne(ctx context.Context, q querier.Querier, employeeID string, lt LeaveType, fromYear, toYear int, force bool) (bool, error) {
	prior, err := s.Store.GetOrCreateBalance(ctx, q, employeeID, lt, fromYear)
	if err != nil {
		return false, err
	}
	carry := carryOverAmount(prior.Remaining, lt.Quota)

	priorUsed := decimal.Zero
	existing, err := s.Store.GetOrCreateBalance(ctx, q, employeeID, lt, toYear)
	if err != nil {
		return false, err
	}
	if !existing.AutoCreated && !force {
		return false, nil
	}
	priorUsed = existing.Used

	entitlement := lt.Quota.DefaultDays
	remaining := entitlement.Add(carry).Sub(priorUsed)
	if err := s.Store.writeProcessedBalance(ctx, q, employeeID, lt.ID, toYear, entitlement, carry, priorUsed, remaining); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) writeProcessedBalance(ctx context.Context, q querier.Querier, employeeID, leaveTypeID string, year int, entitlement, carry, used, remaining decimal.Decimal) error {
	_, err := q.Exec(ctx, `
    INSERT INTO leave_balances (employee_id, leave_type_id, year, entitlement, used, remaining, carry_over, auto_created)
    VALUES ($1, $2, $3, $4, $5, $6, $7, false)
    ON CONFLICT (employee_id, leave_type_id, year) DO UPDATE
      SET entitlement = EXCLUDED.entitlement,
          used = EXCLUDED.used,
          remaining = EXCLUDED.remaining,
          carry_over = EXCLUDED.carry_over,
          auto_created = false,
          updated_at = now()
  `, employeeID, leaveTypeID, year, entitlement, used, remaining, carry)
	return err
}
