package approval

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LeaveType classifies a leave request.
type LeaveType string

// Leave type values.
const (
	LeaveAnnual   LeaveType = "ANNUAL"
	LeaveSick     LeaveType = "SICK"
	LeavePersonal LeaveType = "PERSONAL"
	LeaveOther    LeaveType = "OTHER"
)

// ValidationError reports an invalid field during detail construction.
// It is returned before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Detail is the request payload: exactly one of LeaveDetail or
// ExpenseDetail, fixed at creation. The concrete type is determined by
// the request Type.
type Detail interface {
	isDetail()
}

// LeaveDetail is the immutable payload of a LEAVE request.
type LeaveDetail struct {
	LeaveType LeaveType `json:"leave_type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason"`
}

func (LeaveDetail) isDetail() {}

// NewLeaveDetail validates and constructs a LeaveDetail.
// The start date must be strictly before the end date.
func NewLeaveDetail(leaveType LeaveType, start, end time.Time, reason string) (LeaveDetail, error) {
	switch leaveType {
	case LeaveAnnual, LeaveSick, LeavePersonal, LeaveOther:
	default:
		return LeaveDetail{}, &ValidationError{Field: "leave_type", Reason: fmt.Sprintf("unknown leave type %q", leaveType)}
	}
	if !start.Before(end) {
		return LeaveDetail{}, &ValidationError{Field: "start_date", Reason: "start date must be before end date"}
	}
	if strings.TrimSpace(reason) == "" {
		return LeaveDetail{}, &ValidationError{Field: "reason", Reason: "reason cannot be empty"}
	}
	return LeaveDetail{
		LeaveType: leaveType,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Reason:    reason,
	}, nil
}

// ExpenseDetail is the immutable payload of an EXPENSE request.
type ExpenseDetail struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ReceiptURL  string  `json:"receipt_url,omitempty"`
}

func (ExpenseDetail) isDetail() {}

// NewExpenseDetail validates and constructs an ExpenseDetail.
func NewExpenseDetail(amount float64, category, description, receiptURL string) (ExpenseDetail, error) {
	if amount <= 0 {
		return ExpenseDetail{}, &ValidationError{Field: "amount", Reason: "amount must be positive"}
	}
	if strings.TrimSpace(category) == "" {
		return ExpenseDetail{}, &ValidationError{Field: "category", Reason: "category cannot be empty"}
	}
	if strings.TrimSpace(description) == "" {
		return ExpenseDetail{}, &ValidationError{Field: "description", Reason: "description cannot be empty"}
	}
	return ExpenseDetail{
		Amount:      amount,
		Category:    category,
		Description: description,
		ReceiptURL:  receiptURL,
	}, nil
}

// MarshalDetail serializes a detail payload to JSON for storage.
func MarshalDetail(d Detail) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("detail is nil")
	}
	return json.Marshal(d)
}

// UnmarshalDetail parses a stored detail payload. The request type
// selects the concrete detail shape.
func UnmarshalDetail(t Type, data []byte) (Detail, error) {
	switch t {
	case TypeLeave:
		var d LeaveDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse leave detail: %w", err)
		}
		return d, nil
	case TypeExpense:
		var d ExpenseDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse expense detail: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown approval type %q", t)
	}
}
