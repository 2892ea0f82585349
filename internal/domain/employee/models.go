package employee

import "time"

type Employee struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	CompanyID string    `json:"companyId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	ManagerID *string   `json:"managerId,omitempty"`
	HireDate  time.Time `json:"hireDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Delegate grants one employee the manager's approval authority for a
// bounded date window.
type Delegate struct {
	ID         string    `json:"id"`
	ManagerID  string    `json:"managerId"`
	DelegateID string    `json:"delegateId"`
	StartsOn   time.Time `json:"startsOn"`
	EndsOn     time.Time `json:"endsOn"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
