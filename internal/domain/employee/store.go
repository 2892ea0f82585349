package employee

import (
	"context"
	"time"

	"leavehub/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = "id, user_id, company_id, first_name, last_name, email, manager_id, hire_date, status, created_at"

func (s *Store) scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserID, &e.CompanyID, &e.FirstName, &e.LastName, &e.Email, &e.ManagerID, &e.HireDate, &e.Status, &e.CreatedAt)
	return e, err
}

func (s *Store) Get(ctx context.Context, employeeID string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1", employeeID))
}

func (s *Store) ByUserID(ctx context.Context, userID string) (Employee, error) {
	return s.scanEmployee(s.DB.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE user_id = $1", userID))
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY last_name, first_name LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) Create(ctx context.Context, e Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, company_id, first_name, last_name, email, manager_id, hire_date, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id
  `, e.UserID, e.CompanyID, e.FirstName, e.LastName, e.Email, e.ManagerID, e.HireDate, e.Status).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, e Employee) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, email = $3, manager_id = $4, hire_date = $5, status = $6
    WHERE id = $7
  `, e.FirstName, e.LastName, e.Email, e.ManagerID, e.HireDate, e.Status, e.ID)
	return err
}

// ManagerUserID resolves the user account of the employee's manager, empty
// when the employee has no manager or the manager has no login.
func (s *Store) ManagerUserID(ctx context.Context, employeeID string) (string, error) {
	var userID *string
	err := s.DB.QueryRow(ctx, `
    SELECT m.user_id
    FROM employees e
    JOIN employees m ON e.manager_id = m.id
    WHERE e.id = $1
  `, employeeID).Scan(&userID)
	if err != nil {
		return "", err
	}
	if userID == nil {
		return "", nil
	}
	return *userID, nil
}

func (s *Store) IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM employees WHERE id = $1 AND manager_id = $2",
		employeeID, managerEmployeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsActiveDelegateFor reports whether candidate holds a delegation window from
// the employee's manager covering the given date.
func (s *Store) IsActiveDelegateFor(ctx context.Context, candidateEmployeeID, employeeID string, on time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM approval_delegates d
    JOIN employees e ON e.manager_id = d.manager_id
    WHERE e.id = $1 AND d.delegate_id = $2 AND $3 BETWEEN d.starts_on AND d.ends_on
  `, employeeID, candidateEmployeeID, on).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateDelegate(ctx context.Context, d Delegate) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO approval_delegates (manager_id, delegate_id, starts_on, ends_on)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, d.ManagerID, d.DelegateID, d.StartsOn, d.EndsOn).Scan(&id)
	return id, err
}

func (s *Store) ListDelegates(ctx context.Context, managerID string) ([]Delegate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, manager_id, delegate_id, starts_on, ends_on, created_at
    FROM approval_delegates
    WHERE manager_id = $1
    ORDER BY starts_on DESC
  `, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var delegates []Delegate
	for rows.Next() {
		var d Delegate
		if err := rows.Scan(&d.ID, &d.ManagerID, &d.DelegateID, &d.StartsOn, &d.EndsOn, &d.CreatedAt); err != nil {
			return nil, err
		}
		delegates = append(delegates, d)
	}
	return delegates, rows.Err()
}

// DeleteDelegate is scoped to the owning manager so one manager cannot
// revoke another's delegation.
func (s *Store) DeleteDelegate(ctx context.Context, delegateRowID, managerID string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM approval_delegates WHERE id = $1 AND manager_id = $2", delegateRowID, managerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ActiveEmployeeIDs returns ids of all active employees, used by the year-end
// rollover sweep.
func (s *Store) ActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM employees WHERE status = $1 ORDER BY id", StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) HireDate(ctx context.Context, employeeID string) (time.Time, error) {
	var hireDate time.Time
	err := s.DB.QueryRow(ctx, "SELECT hire_date FROM employees WHERE id = $1", employeeID).Scan(&hireDate)
	return hireDate, err
}
