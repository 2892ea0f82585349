package leave

import (
	"context"
	"fmt"
	"time"

	"leavehub/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) LeaveTypeByID(ctx context.Context, id string) (LeaveType, error) {
	var lt LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT t.id, t.name, t.code, t.balance_tracked,
           q.default_days, q.min_tenure_years, q.advance_notice_days,
           q.carry_over_allowed, q.max_carry_over_days, q.medical_cert_threshold_days
    FROM leave_types t
    JOIN leave_quota_settings q ON q.leave_type_id = t.id
    WHERE t.id = $1
  `, id).Scan(&lt.ID, &lt.Name, &lt.Code, &lt.BalanceTracked,
		&lt.Quota.DefaultDays, &lt.Quota.MinTenureYears, &lt.Quota.AdvanceNoticeDays,
		&lt.Quota.CarryOverAllowed, &lt.Quota.MaxCarryOverDays, &lt.Quota.MedicalCertThresholdDays)
	return lt, err
}

func (s *Store) ListTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, t.name, t.code, t.balance_tracked,
           q.default_days, q.min_tenure_years, q.advance_notice_days,
           q.carry_over_allowed, q.max_carry_over_days, q.medical_cert_threshold_days
    FROM leave_types t
    JOIN leave_quota_settings q ON q.leave_type_id = t.id
    ORDER BY t.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.Code, &lt.BalanceTracked,
			&lt.Quota.DefaultDays, &lt.Quota.MinTenureYears, &lt.Quota.AdvanceNoticeDays,
			&lt.Quota.CarryOverAllowed, &lt.Quota.MaxCarryOverDays, &lt.Quota.MedicalCertThresholdDays); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

// HasOverlappingRequest reports whether the employee already holds a pending
// or approved request intersecting [start, end].
func (s *Store) HasOverlappingRequest(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests
    WHERE employee_id = $1
      AND status IN ($2, $3)
      AND start_date <= $4
      AND end_date >= $5
  `, employeeID, StatusPending, StatusApproved, end, start).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertRequest(ctx context.Context, q querier.Querier, req Request) (string, error) {
	var id string
	err := q.QueryRow(ctx, `
    INSERT INTO leave_requests
      (employee_id, leave_type_id, start_date, end_date, slot_kind, hourly_start, hourly_end,
       amount, reason, status, medical_certificate, medical_certificate_file)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id
  `, req.EmployeeID, req.LeaveTypeID, req.StartDate, req.EndDate, req.Slot.Kind,
		nullIfEmpty(req.Slot.HourlyStart), nullIfEmpty(req.Slot.HourlyEnd),
		req.Amount, req.Reason, StatusPending, req.MedicalCertificate, req.MedicalCertificateFile).Scan(&id)
	return id, err
}

func (s *Store) InsertYearSplits(ctx context.Context, q querier.Querier, requestID string, splits []YearSplit) error {
	for _, split := range splits {
		if _, err := q.Exec(ctx, `
      INSERT INTO leave_request_year_splits (request_id, year, amount)
      VALUES ($1, $2, $3)
    `, requestID, split.Year, split.Amount); err != nil {
			return err
		}
	}
	return nil
}

const requestColumns = `id, employee_id, leave_type_id, start_date, end_date, slot_kind,
       COALESCE(hourly_start, ''), COALESCE(hourly_end, ''), amount, reason, status,
       medical_certificate, medical_certificate_file, approver_id, approved_at, rejection_reason, created_at`

func scanRequest(row interface{ Scan(...any) error }) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.StartDate, &req.EndDate,
		&req.Slot.Kind, &req.Slot.HourlyStart, &req.Slot.HourlyEnd, &req.Amount, &req.Reason,
		&req.Status, &req.MedicalCertificate, &req.MedicalCertificateFile,
		&req.ApproverID, &req.ApprovedAt, &req.RejectionReason, &req.CreatedAt)
	return req, err
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE id = $1", requestID))
}

// YearSplits returns the stored per-year decomposition, oldest year first.
// An empty result is legal: requests predating the split mechanism fall back
// to their start-date year on refund.
func (s *Store) YearSplits(ctx context.Context, q querier.Querier, requestID string) ([]YearSplit, error) {
	rows, err := q.Query(ctx, `
    SELECT year, amount
    FROM leave_request_year_splits
    WHERE request_id = $1
    ORDER BY year
  `, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var splits []YearSplit
	for rows.Next() {
		var split YearSplit
		if err := rows.Scan(&split.Year, &split.Amount); err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	return splits, rows.Err()
}

// TransitionStatus performs the optimistic status flip: the UPDATE is
// conditioned on the current status still being one of fromStatuses, and the
// affected-row count decides success. Zero rows means another transition won
// the race (or the id is unknown) and the caller reports a conflict.
func (s *Store) TransitionStatus(ctx context.Context, q querier.Querier, requestID, toStatus string, fromStatuses []string, approverID, rejectionReason *string) (bool, error) {
	tag, err := q.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1,
        approver_id = COALESCE($2, approver_id),
        approved_at = CASE WHEN $2 IS NULL THEN approved_at ELSE now() END,
        rejection_reason = COALESCE($3, rejection_reason)
    WHERE id = $4 AND status = ANY($5)
  `, toStatus, approverID, rejectionReason, requestID, fromStatuses)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type RequestFilter struct {
	EmployeeID string
	ManagerID  string
	Status     string
	Limit      int
	Offset     int
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		where += fmt.Sprintf(" AND employee_id IN (SELECT id FROM employees WHERE manager_id = $%d)", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := "SELECT " + requestColumns + " FROM leave_requests" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

// CalendarEntries lists pending and approved requests in a date window for
// the shared team calendar and its CSV export.
func (s *Store) CalendarEntries(ctx context.Context, from, to time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+requestColumns+` FROM leave_requests
     WHERE status IN ($1, $2) AND start_date <= $3 AND end_date >= $4
     ORDER BY start_date`,
		StatusPending, StatusApproved, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
