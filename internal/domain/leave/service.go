package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/calendar"
	"leavehub/internal/domain/employee"
	"leavehub/internal/platform/querier"
)

type Service struct {
	Store     *Store
	Employees *employee.Store
	Calendar  *calendar.Service

	// now is swappable for tests; tenure, advance-notice and the reserve
	// check year all derive from it.
	now func() time.Time
}

func NewService(store *Store, employees *employee.Store, cal *calendar.Service) *Service {
	return &Service{Store: store, Employees: employees, Calendar: cal, now: time.Now}
}

// Actor identifies who is driving a lifecycle transition.
type Actor struct {
	UserID   string
	RoleName string
}

func (a Actor) elevated() bool {
	return a.RoleName == auth.RoleHR || a.RoleName == auth.RoleAdmin
}

type CreateRequestInput struct {
	EmployeeID             string
	LeaveTypeID            string
	StartDate              time.Time
	EndDate                time.Time
	Slot                   Slot
	Reason                 string
	MedicalCertificate     bool
	MedicalCertificateFile *string
}

type CreateRequestResult struct {
	Request       Request
	ManagerUserID string
}

func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (CreateRequestResult, error) {
	var result CreateRequestResult

	start, end := dateOnly(input.StartDate), dateOnly(input.EndDate)
	if err := validateShape(start, end, input.Slot); err != nil {
		return result, err
	}

	emp, err := s.Employees.Get(ctx, input.EmployeeID)
	if err != nil {
		return result, fmt.Errorf("load employee: %w", err)
	}

	lt, err := s.Store.LeaveTypeByID(ctx, input.LeaveTypeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("%w: unknown leave type", ErrValidation)
	}
	if err != nil {
		return result, fmt.Errorf("load leave type: %w", err)
	}

	today := dateOnly(s.now())
	if lt.Quota.MinTenureYears > 0 && tenureYears(emp.HireDate, start) < lt.Quota.MinTenureYears {
		return result, fmt.Errorf("%w: %s requires at least %d year(s) of tenure",
			ErrValidation, lt.Name, lt.Quota.MinTenureYears)
	}
	if lt.Quota.AdvanceNoticeDays > 0 {
		earliest := today.AddDate(0, 0, lt.Quota.AdvanceNoticeDays)
		if start.Before(earliest) {
			return result, fmt.Errorf("%w: %s must be requested %d day(s) in advance",
				ErrValidation, lt.Name, lt.Quota.AdvanceNoticeDays)
		}
	}

	overlapping, err := s.Store.HasOverlappingRequest(ctx, emp.ID, start, end)
	if err != nil {
		return result, fmt.Errorf("overlap check: %w", err)
	}
	if overlapping {
		return result, fmt.Errorf("%w: an open request already covers part of this range", ErrValidation)
	}

	facts, err := s.Calendar.FactsForRange(ctx, &emp.CompanyID, start, end)
	if err != nil {
		return result, err
	}

	if input.Slot.Kind == SlotHourly && dayPortion(start, facts).IsZero() {
		return result, fmt.Errorf("%w: hourly leave must fall on a working day", ErrValidation)
	}

	amount, err := Duration(start, end, input.Slot, facts)
	if err != nil {
		return result, err
	}
	if !amount.IsPositive() {
		return result, fmt.Errorf("%w: selected range contains no working days", ErrValidation)
	}

	if lt.Quota.MedicalCertThresholdDays != nil &&
		amount.GreaterThanOrEqual(*lt.Quota.MedicalCertThresholdDays) &&
		!input.MedicalCertificate {
		return result, fmt.Errorf("%w: %s of %s days or more requires a medical certificate",
			ErrValidation, lt.Name, lt.Quota.MedicalCertThresholdDays.String())
	}

	splits, err := SplitByYear(start, end, input.Slot, facts)
	if err != nil {
		return result, err
	}

	req := Request{
		EmployeeID:             emp.ID,
		LeaveTypeID:            lt.ID,
		StartDate:              start,
		EndDate:                end,
		Slot:                   input.Slot,
		Amount:                 amount,
		Reason:                 strings.TrimSpace(input.Reason),
		Status:                 StatusPending,
		MedicalCertificate:     input.MedicalCertificate,
		MedicalCertificateFile: input.MedicalCertificateFile,
		Splits:                 splits,
	}

	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.Store.Reserve(ctx, tx, emp.ID, lt, today.Year(), splits, amount); err != nil {
		return result, err
	}
	id, err := s.Store.InsertRequest(ctx, tx, req)
	if err != nil {
		return result, fmt.Errorf("insert request: %w", err)
	}
	if err := s.Store.InsertYearSplits(ctx, tx, id, splits); err != nil {
		return result, fmt.Errorf("insert year splits: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	req.ID = id
	req.CreatedAt = s.now()
	result.Request = req

	managerUserID, err := s.Employees.ManagerUserID(ctx, emp.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return result, err
	}
	result.ManagerUserID = managerUserID
	return result, nil
}

func validateShape(start, end time.Time, slot Slot) error {
	if !slot.Kind.Valid() {
		return fmt.Errorf("%w: unknown slot kind", ErrValidation)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if end.Sub(start) > MaxRangeDays*24*time.Hour {
		return fmt.Errorf("%w: range exceeds %d days", ErrValidation, MaxRangeDays)
	}
	single := start.Equal(end)
	if slot.Kind.HalfDay() && !single {
		return fmt.Errorf("%w: half-day slots must cover exactly one date", ErrValidation)
	}
	if slot.Kind == SlotHourly {
		if !single {
			return fmt.Errorf("%w: hourly leave must cover exactly one date", ErrValidation)
		}
		if slot.HourlyStart == "" || slot.HourlyEnd == "" {
			return fmt.Errorf("%w: hourly leave requires start and end times", ErrValidation)
		}
	}
	return nil
}

// authorizeDecision enforces approval authority: the employee's manager, an
// active delegate of that manager, or HR/Admin. Self-approval is refused for
// everyone, including elevated roles.
func (s *Service) authorizeDecision(ctx context.Context, actor Actor, req Request) error {
	actorEmp, err := s.Employees.ByUserID(ctx, actor.UserID)
	hasEmployee := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if hasEmployee && actorEmp.ID == req.EmployeeID {
		return fmt.Errorf("%w: self-approval is not allowed", ErrForbidden)
	}
	if actor.elevated() {
		return nil
	}
	if !hasEmployee {
		return ErrForbidden
	}

	isManager, err := s.Employees.IsManagerOf(ctx, actorEmp.ID, req.EmployeeID)
	if err != nil {
		return err
	}
	if isManager {
		return nil
	}
	isDelegate, err := s.Employees.IsActiveDelegateFor(ctx, actorEmp.ID, req.EmployeeID, dateOnly(s.now()))
	if err != nil {
		return err
	}
	if isDelegate {
		return nil
	}
	return ErrForbidden
}

// CanView reports whether the actor may read the request: the owner, the
// owner's manager or an active delegate, or HR/Admin.
func (s *Service) CanView(ctx context.Context, actor Actor, req Request) (bool, error) {
	if actor.elevated() {
		return true, nil
	}
	actorEmp, err := s.Employees.ByUserID(ctx, actor.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if actorEmp.ID == req.EmployeeID {
		return true, nil
	}
	isManager, err := s.Employees.IsManagerOf(ctx, actorEmp.ID, req.EmployeeID)
	if err != nil {
		return false, err
	}
	if isManager {
		return true, nil
	}
	return s.Employees.IsActiveDelegateFor(ctx, actorEmp.ID, req.EmployeeID, dateOnly(s.now()))
}

// Approve flips Pending to Approved. The balance was already reserved at
// creation, so no ledger change happens here.
func (s *Service) Approve(ctx context.Context, requestID string, actor Actor) (Request, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if err := s.authorizeDecision(ctx, actor, req); err != nil {
		return Request{}, err
	}

	ok, err := s.Store.TransitionStatus(ctx, s.Store.DB, requestID, StatusApproved,
		[]string{StatusPending}, &actor.UserID, nil)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrConflict
	}
	return s.getRequest(ctx, requestID)
}

// Reject flips Pending to Rejected and refunds the reservation, both inside
// one transaction. A rejection reason is mandatory.
func (s *Service) Reject(ctx context.Context, requestID string, actor Actor, reason string) (Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Request{}, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if err := s.authorizeDecision(ctx, actor, req); err != nil {
		return Request{}, err
	}
	lt, err := s.Store.LeaveTypeByID(ctx, req.LeaveTypeID)
	if err != nil {
		return Request{}, fmt.Errorf("load leave type: %w", err)
	}

	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ok, err := s.Store.TransitionStatus(ctx, tx, requestID, StatusRejected,
		[]string{StatusPending}, &actor.UserID, &reason)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrConflict
	}
	if err := s.refundRequest(ctx, tx, req, lt); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.getRequest(ctx, requestID)
}

// Cancel flips to Cancelled and refunds. Owners may cancel their own pending
// requests; HR/Admin may also cancel approved ones. The conditional update
// makes a second cancel (or a cancel racing an approval) report a conflict
// instead of refunding twice.
func (s *Service) Cancel(ctx context.Context, requestID string, actor Actor) (Request, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}

	var fromStatuses []string
	actorEmp, err := s.Employees.ByUserID(ctx, actor.UserID)
	switch {
	case err == nil && actorEmp.ID == req.EmployeeID:
		fromStatuses = []string{StatusPending}
	case actor.elevated():
		fromStatuses = []string{StatusPending, StatusApproved}
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return Request{}, err
	default:
		return Request{}, ErrForbidden
	}

	lt, err := s.Store.LeaveTypeByID(ctx, req.LeaveTypeID)
	if err != nil {
		return Request{}, fmt.Errorf("load leave type: %w", err)
	}

	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ok, err := s.Store.TransitionStatus(ctx, tx, requestID, StatusCancelled, fromStatuses, nil, nil)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, ErrConflict
	}
	if err := s.refundRequest(ctx, tx, req, lt); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.getRequest(ctx, requestID)
}

// refundRequest credits back the stored year splits, or the single
// start-date-year amount for legacy requests without split rows.
func (s *Service) refundRequest(ctx context.Context, q querier.Querier, req Request, lt LeaveType) error {
	splits, err := s.Store.YearSplits(ctx, q, req.ID)
	if err != nil {
		return err
	}
	if len(splits) == 0 {
		splits = []YearSplit{{Year: req.StartDate.Year(), Amount: req.Amount}}
	}
	return s.Store.Refund(ctx, q, req.EmployeeID, lt, splits)
}

func (s *Service) getRequest(ctx context.Context, requestID string) (Request, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	splits, err := s.Store.YearSplits(ctx, s.Store.DB, req.ID)
	if err != nil {
		return Request{}, err
	}
	req.Splits = splits
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (Request, error) {
	return s.getRequest(ctx, requestID)
}

// ListForActor scopes the request list by role: employees see their own,
// managers see their reports, HR/Admin see everything.
func (s *Service) ListForActor(ctx context.Context, actor Actor, status string, limit, offset int) ([]Request, int, error) {
	filter := RequestFilter{Status: status, Limit: limit, Offset: offset}

	switch actor.RoleName {
	case auth.RoleEmployee, auth.RoleManager:
		actorEmp, err := s.Employees.ByUserID(ctx, actor.UserID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		if actor.RoleName == auth.RoleEmployee {
			filter.EmployeeID = actorEmp.ID
		} else {
			filter.ManagerID = actorEmp.ID
		}
	}
	return s.Store.ListRequests(ctx, filter)
}

func (s *Service) ListTypes(ctx context.Context) ([]LeaveType, error) {
	return s.Store.ListTypes(ctx)
}

func (s *Service) ListBalances(ctx context.Context, employeeID string) ([]Balance, error) {
	return s.Store.ListBalances(ctx, employeeID)
}

func (s *Service) CalendarEntries(ctx context.Context, from, to time.Time) ([]Request, error) {
	return s.Store.CalendarEntries(ctx, from, to)
}
