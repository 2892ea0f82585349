package leave_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"leavehub/internal/domain/calendar"
	"leavehub/internal/domain/employee"
	"leavehub/internal/domain/leave"
	"leavehub/internal/platform/db"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

type fixture struct {
	pool *pgxpool.Pool
	svc  *leave.Service

	managerUserID string
	managerEmpID  string
	workerUserID  string
	workerEmpID   string
	leaveType     leave.LeaveType
}

func newFixture(t *testing.T, pool *pgxpool.Pool) *fixture {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	var roleID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO roles (name) VALUES ('employee')
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `).Scan(&roleID); err != nil {
		t.Fatalf("role: %v", err)
	}

	var companyID string
	if err := pool.QueryRow(ctx,
		"INSERT INTO companies (name) VALUES ($1) RETURNING id",
		"Acme "+suffix).Scan(&companyID); err != nil {
		t.Fatalf("company: %v", err)
	}

	newUser := func(email string) string {
		var id string
		if err := pool.QueryRow(ctx,
			"INSERT INTO users (email, password_hash, role_id) VALUES ($1, 'x', $2) RETURNING id",
			email, roleID).Scan(&id); err != nil {
			t.Fatalf("user %s: %v", email, err)
		}
		return id
	}
	managerUserID := newUser(fmt.Sprintf("manager-%s@test.local", suffix))
	workerUserID := newUser(fmt.Sprintf("worker-%s@test.local", suffix))

	var managerEmpID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO employees (user_id, company_id, first_name, last_name, email, hire_date)
    VALUES ($1, $2, 'Mia', 'Manager', $3, '2018-03-01')
    RETURNING id
  `, managerUserID, companyID, fmt.Sprintf("manager-%s@test.local", suffix)).Scan(&managerEmpID); err != nil {
		t.Fatalf("manager employee: %v", err)
	}

	var workerEmpID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO employees (user_id, company_id, first_name, last_name, email, manager_id, hire_date)
    VALUES ($1, $2, 'Will', 'Worker', $3, $4, '2020-01-06')
    RETURNING id
  `, workerUserID, companyID, fmt.Sprintf("worker-%s@test.local", suffix), managerEmpID).Scan(&workerEmpID); err != nil {
		t.Fatalf("worker employee: %v", err)
	}

	var leaveTypeID string
	if err := pool.QueryRow(ctx, `
    INSERT INTO leave_types (name, code) VALUES ($1, $2) RETURNING id
  `, "Vacation "+suffix, "vac_"+suffix).Scan(&leaveTypeID); err != nil {
		t.Fatalf("leave type: %v", err)
	}
	if _, err := pool.Exec(ctx, `
    INSERT INTO leave_quota_settings (leave_type_id, default_days, carry_over_allowed, max_carry_over_days)
    VALUES ($1, 20, true, 5)
  `, leaveTypeID); err != nil {
		t.Fatalf("quota: %v", err)
	}

	store := leave.NewStore(pool)
	svc := leave.NewService(store, employee.NewStore(pool), calendar.NewService(calendar.NewStore(pool)))

	lt, err := store.LeaveTypeByID(ctx, leaveTypeID)
	if err != nil {
		t.Fatalf("load leave type: %v", err)
	}

	return &fixture{
		pool:          pool,
		svc:           svc,
		managerUserID: managerUserID,
		managerEmpID:  managerEmpID,
		workerUserID:  workerUserID,
		workerEmpID:   workerEmpID,
		leaveType:     lt,
	}
}

// nextMonday returns the first Monday at least seven days out, normalized to
// midnight UTC.
func nextMonday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (f *fixture) balance(t *testing.T, year int) (used, remaining decimal.Decimal) {
	t.Helper()
	err := f.pool.QueryRow(context.Background(), `
    SELECT used, remaining FROM leave_balances
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
  `, f.workerEmpID, f.leaveType.ID, year).Scan(&used, &remaining)
	if err != nil {
		t.Fatalf("balance lookup: %v", err)
	}
	return used, remaining
}

func TestRequestLifecycleIntegration(t *testing.T) {
	pool := setupPool(t)
	f := newFixture(t, pool)
	ctx := context.Background()

	start := nextMonday()
	end := start.AddDate(0, 0, 1)

	result, err := f.svc.CreateRequest(ctx, leave.CreateRequestInput{
		EmployeeID:  f.workerEmpID,
		LeaveTypeID: f.leaveType.ID,
		StartDate:   start,
		EndDate:     end,
		Slot:        leave.Slot{Kind: leave.SlotFullDay},
		Reason:      "trip",
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if !result.Request.Amount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("amount = %s, want 2", result.Request.Amount.String())
	}
	if result.ManagerUserID != f.managerUserID {
		t.Fatalf("manager user = %s, want %s", result.ManagerUserID, f.managerUserID)
	}

	used, remaining := f.balance(t, start.Year())
	if !used.Equal(decimal.NewFromInt(2)) || !remaining.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("after reserve: used %s remaining %s", used.String(), remaining.String())
	}

	worker := leave.Actor{UserID: f.workerUserID, RoleName: "employee"}
	manager := leave.Actor{UserID: f.managerUserID, RoleName: "manager"}
	hr := leave.Actor{UserID: uuid.NewString(), RoleName: "hr"}

	if _, err := f.svc.Approve(ctx, result.Request.ID, worker); !errors.Is(err, leave.ErrForbidden) {
		t.Fatalf("self-approval: got %v, want ErrForbidden", err)
	}

	approved, err := f.svc.Approve(ctx, result.Request.ID, manager)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != leave.StatusApproved {
		t.Fatalf("status = %s, want approved", approved.Status)
	}

	// Approval reserves nothing further.
	used, remaining = f.balance(t, start.Year())
	if !used.Equal(decimal.NewFromInt(2)) || !remaining.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("after approve: used %s remaining %s", used.String(), remaining.String())
	}

	if _, err := f.svc.Approve(ctx, result.Request.ID, manager); !errors.Is(err, leave.ErrConflict) {
		t.Fatalf("double approve: got %v, want ErrConflict", err)
	}

	cancelled, err := f.svc.Cancel(ctx, result.Request.ID, hr)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != leave.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	used, remaining = f.balance(t, start.Year())
	if !used.IsZero() || !remaining.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("after cancel: used %s remaining %s", used.String(), remaining.String())
	}

	if _, err := f.svc.Cancel(ctx, result.Request.ID, hr); !errors.Is(err, leave.ErrConflict) {
		t.Fatalf("double cancel: got %v, want ErrConflict", err)
	}
}

func TestOverlapAndBalanceGuards(t *testing.T) {
	pool := setupPool(t)
	f := newFixture(t, pool)
	ctx := context.Background()

	start := nextMonday()
	end := start.AddDate(0, 0, 3)

	if _, err := f.svc.CreateRequest(ctx, leave.CreateRequestInput{
		EmployeeID:  f.workerEmpID,
		LeaveTypeID: f.leaveType.ID,
		StartDate:   start,
		EndDate:     end,
		Slot:        leave.Slot{Kind: leave.SlotFullDay},
	}); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	_, err := f.svc.CreateRequest(ctx, leave.CreateRequestInput{
		EmployeeID:  f.workerEmpID,
		LeaveTypeID: f.leaveType.ID,
		StartDate:   start.AddDate(0, 0, 2),
		EndDate:     end.AddDate(0, 0, 2),
		Slot:        leave.Slot{Kind: leave.SlotFullDay},
	})
	if !errors.Is(err, leave.ErrValidation) {
		t.Fatalf("overlap: got %v, want ErrValidation", err)
	}

	// A six-week range costs 30 weekdays against the 16 days left.
	bigStart := end.AddDate(0, 0, 14)
	for bigStart.Weekday() != time.Monday {
		bigStart = bigStart.AddDate(0, 0, 1)
	}
	_, err = f.svc.CreateRequest(ctx, leave.CreateRequestInput{
		EmployeeID:  f.workerEmpID,
		LeaveTypeID: f.leaveType.ID,
		StartDate:   bigStart,
		EndDate:     bigStart.AddDate(0, 0, 41),
		Slot:        leave.Slot{Kind: leave.SlotFullDay},
	})
	if !errors.Is(err, leave.ErrInsufficientBalance) {
		t.Fatalf("big request: got %v, want ErrInsufficientBalance", err)
	}
}

func TestRolloverIntegration(t *testing.T) {
	pool := setupPool(t)
	f := newFixture(t, pool)
	ctx := context.Background()

	fromYear, toYear := 2030, 2031

	summary, err := f.svc.Rollover(ctx, fromYear, toYear, false)
	if err != nil {
		t.Fatalf("Rollover: %v", err)
	}
	if summary.RowsWritten == 0 {
		t.Fatal("expected at least one row written")
	}

	var entitlement, carry, remaining decimal.Decimal
	var autoCreated bool
	if err := pool.QueryRow(ctx, `
    SELECT entitlement, carry_over, remaining, auto_created FROM leave_balances
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
  `, f.workerEmpID, f.leaveType.ID, toYear).Scan(&entitlement, &carry, &remaining, &autoCreated); err != nil {
		t.Fatalf("balance lookup: %v", err)
	}
	if !entitlement.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("entitlement = %s, want 20", entitlement.String())
	}
	if !carry.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("carry = %s, want 5 (capped)", carry.String())
	}
	if !remaining.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("remaining = %s, want 25", remaining.String())
	}
	if autoCreated {
		t.Fatal("processed row still flagged auto_created")
	}

	// A second sweep without force leaves processed rows untouched.
	if _, err := f.svc.Rollover(ctx, fromYear, toYear, false); err != nil {
		t.Fatalf("second Rollover: %v", err)
	}
	var remainingAfter decimal.Decimal
	if err := pool.QueryRow(ctx, `
    SELECT remaining FROM leave_balances
    WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
  `, f.workerEmpID, f.leaveType.ID, toYear).Scan(&remainingAfter); err != nil {
		t.Fatalf("balance lookup: %v", err)
	}
	if !remainingAfter.Equal(remaining) {
		t.Fatalf("remaining changed on rerun: %s -> %s", remaining.String(), remainingAfter.String())
	}
}
