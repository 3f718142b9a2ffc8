// Package approval holds the approval-request aggregate: a strictly
// sequential sign-off chain advanced one step at a time.
//
// All mutation goes through Approve, Reject and Cancel so the aggregate
// invariants hold at every point: while the request is PENDING exactly
// one step is PENDING (the current step), step orders are the
// contiguous sequence 1..N, and a decided step never changes again.
// The aggregate is pure in-memory state; persistence and transactions
// belong to the caller.
package approval

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Type discriminates the two supported request kinds.
type Type string

// Request types.
const (
	TypeLeave   Type = "LEAVE"
	TypeExpense Type = "EXPENSE"
)

// Status is shared by requests and steps. A request uses all four
// values; a step is never CANCELLED.
type Status string

// Status values. PENDING is initial; the rest are terminal.
const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Sentinel errors for rejected transitions. Callers translate these
// into their own error surface (403 vs 400 class).
var (
	// ErrInvalidStatus is returned when deciding or cancelling a
	// request that is no longer PENDING.
	ErrInvalidStatus = errors.New("request is not pending")

	// ErrNoPendingStep is returned when a PENDING request has no
	// current step left to decide.
	ErrNoPendingStep = errors.New("no pending step to decide")

	// ErrNotAuthorized is returned when the acting identity is not the
	// current step's approver, or a non-requester attempts to cancel.
	ErrNotAuthorized = errors.New("not authorized for this request")

	// ErrNoApprovers is returned by the factories when the supplied
	// approver chain is empty.
	ErrNoApprovers = errors.New("at least one approver is required")
)

// Step is one link of the sign-off chain, owned exclusively by its
// Request. Once a step leaves PENDING it never changes again.
type Step struct {
	Order      int
	ApproverID string
	Status     Status
	Comment    string
	DecidedAt  *time.Time
	CreatedAt  time.Time
}

// Request is the aggregate root. Fields are unexported; reads go
// through the getters and writes through the transition operations.
type Request struct {
	id          string
	typ         Type
	status      Status
	requesterID string
	detail      Detail
	steps       []Step
	createdAt   time.Time
	updatedAt   *time.Time
}

// NewLeaveRequest creates a PENDING leave request with one step per
// approver, ordered as supplied.
func NewLeaveRequest(requesterID string, detail LeaveDetail, approverIDs []string) (*Request, error) {
	return newRequest(TypeLeave, requesterID, detail, approverIDs)
}

// NewExpenseRequest creates a PENDING expense request with one step per
// approver, ordered as supplied.
func NewExpenseRequest(requesterID string, detail ExpenseDetail, approverIDs []string) (*Request, error) {
	return newRequest(TypeExpense, requesterID, detail, approverIDs)
}

func newRequest(typ Type, requesterID string, detail Detail, approverIDs []string) (*Request, error) {
	if len(approverIDs) == 0 {
		return nil, ErrNoApprovers
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate request id: %w", err)
	}

	now := time.Now().UTC()
	steps := make([]Step, 0, len(approverIDs))
	for i, approverID := range approverIDs {
		steps = append(steps, Step{
			Order:      i + 1,
			ApproverID: approverID,
			Status:     StatusPending,
			CreatedAt:  now,
		})
	}

	return &Request{
		id:          id.String(),
		typ:         typ,
		status:      StatusPending,
		requesterID: requesterID,
		detail:      detail,
		steps:       steps,
		createdAt:   now,
	}, nil
}

// Reconstitute rebuilds a Request from persisted state. Steps are
// sorted by order so storage may return them in any order.
func Reconstitute(
	id string,
	typ Type,
	status Status,
	requesterID string,
	detail Detail,
	steps []Step,
	createdAt time.Time,
	updatedAt *time.Time,
) *Request {
	sorted := append([]Step(nil), steps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return &Request{
		id:          id,
		typ:         typ,
		status:      status,
		requesterID: requesterID,
		detail:      detail,
		steps:       sorted,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the request identifier.
func (r *Request) ID() string { return r.id }

// Type returns LEAVE or EXPENSE.
func (r *Request) Type() Type { return r.typ }

// Status returns the overall request status.
func (r *Request) Status() Status { return r.status }

// RequesterID returns the submitter's identity.
func (r *Request) RequesterID() string { return r.requesterID }

// Detail returns the leave or expense payload.
func (r *Request) Detail() Detail { return r.detail }

// Steps returns a copy of the ordered step chain.
func (r *Request) Steps() []Step { return append([]Step(nil), r.steps...) }

// CreatedAt returns the creation timestamp.
func (r *Request) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last mutation timestamp, nil before the first
// mutation.
func (r *Request) UpdatedAt() *time.Time { return r.updatedAt }

// CurrentStep returns the lowest-order PENDING step, i.e. whose
// decision is awaited next. ok is false when no step is pending.
func (r *Request) CurrentStep() (Step, bool) {
	for _, s := range r.steps {
		if s.Status == StatusPending {
			return s, true
		}
	}
	return Step{}, false
}

// Approve marks the current step APPROVED. When this was the last
// undecided step the whole request becomes APPROVED.
func (r *Request) Approve(approverID, comment string) error {
	idx, err := r.currentStepFor(approverID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	r.steps[idx].Status = StatusApproved
	r.steps[idx].Comment = comment
	r.steps[idx].DecidedAt = &now
	r.updatedAt = &now

	if r.allStepsApproved() {
		r.status = StatusApproved
	}
	return nil
}

// Reject marks the current step REJECTED and terminates the whole
// request. Later steps stay PENDING as a dead audit record; they are
// deliberately not cancelled.
func (r *Request) Reject(approverID, comment string) error {
	idx, err := r.currentStepFor(approverID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	r.steps[idx].Status = StatusRejected
	r.steps[idx].Comment = comment
	r.steps[idx].DecidedAt = &now
	r.status = StatusRejected
	r.updatedAt = &now
	return nil
}

// Cancel withdraws a pending request. Only the requester may cancel.
func (r *Request) Cancel(requesterID string) error {
	if r.requesterID != requesterID {
		return fmt.Errorf("%w: only the requester can cancel", ErrNotAuthorized)
	}
	if r.status != StatusPending {
		return fmt.Errorf("%w: cannot cancel %s request", ErrInvalidStatus, r.status)
	}

	now := time.Now().UTC()
	r.status = StatusCancelled
	r.updatedAt = &now
	return nil
}

// IsCompleted reports whether the request reached a terminal status.
func (r *Request) IsCompleted() bool {
	return r.status != StatusPending
}

// currentStepFor validates a decision attempt and returns the index of
// the current step.
func (r *Request) currentStepFor(approverID string) (int, error) {
	if r.status != StatusPending {
		return 0, fmt.Errorf("%w: current status is %s", ErrInvalidStatus, r.status)
	}
	for i, s := range r.steps {
		if s.Status == StatusPending {
			if s.ApproverID != approverID {
				return 0, fmt.Errorf("%w: step %d awaits a different approver", ErrNotAuthorized, s.Order)
			}
			return i, nil
		}
	}
	return 0, ErrNoPendingStep
}

func (r *Request) allStepsApproved() bool {
	for _, s := range r.steps {
		if s.Status != StatusApproved {
			return false
		}
	}
	return true
}
