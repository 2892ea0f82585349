package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaveType struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Code           string        `json:"code"`
	BalanceTracked bool          `json:"balanceTracked"`
	Quota          QuotaSettings `json:"quota"`
}

// QuotaSettings is the per-leave-type policy: annual entitlement, tenure and
// notice requirements, carry-over rules and the medical-certificate threshold
// (nil means certificates are never required for the type).
type QuotaSettings struct {
	DefaultDays              decimal.Decimal  `json:"defaultDays"`
	MinTenureYears           int              `json:"minTenureYears"`
	AdvanceNoticeDays        int              `json:"advanceNoticeDays"`
	CarryOverAllowed         bool             `json:"carryOverAllowed"`
	MaxCarryOverDays         decimal.Decimal  `json:"maxCarryOverDays"`
	MedicalCertThresholdDays *decimal.Decimal `json:"medicalCertThresholdDays,omitempty"`
}

type Slot struct {
	Kind        SlotKind `json:"kind"`
	HourlyStart string   `json:"hourlyStart,omitempty"`
	HourlyEnd   string   `json:"hourlyEnd,omitempty"`
}

type Request struct {
	ID                     string          `json:"id"`
	EmployeeID             string          `json:"employeeId"`
	LeaveTypeID            string          `json:"leaveTypeId"`
	StartDate              time.Time       `json:"startDate"`
	EndDate                time.Time       `json:"endDate"`
	Slot                   Slot            `json:"slot"`
	Amount                 decimal.Decimal `json:"amount"`
	Reason                 string          `json:"reason"`
	Status                 string          `json:"status"`
	MedicalCertificate     bool            `json:"medicalCertificate"`
	MedicalCertificateFile *string         `json:"medicalCertificateFile,omitempty"`
	ApproverID             *string         `json:"approverId,omitempty"`
	ApprovedAt             *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason        *string         `json:"rejectionReason,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	Splits                 []YearSplit     `json:"splits,omitempty"`
}

// YearSplit is the per-calendar-year share of a request's amount. The splits
// of one request sum to its Amount (within rounding tolerance).
type YearSplit struct {
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
}

type Balance struct {
	EmployeeID  string          `json:"employeeId"`
	LeaveTypeID string          `json:"leaveTypeId"`
	Year        int             `json:"year"`
	Entitlement decimal.Decimal `json:"entitlement"`
	Used        decimal.Decimal `json:"used"`
	Remaining   decimal.Decimal `json:"remaining"`
	CarryOver   decimal.Decimal `json:"carryOver"`
	AutoCreated bool            `json:"autoCreated"`
}
