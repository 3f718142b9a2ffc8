// Package repository persists approval requests, users and employees in
// PostgreSQL. Writes that must be atomic with a notice enqueue run
// inside a single pgx transaction via Store.InTx.
package repository

import (
	"context"
	"time"

	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/domain/approval"
	"signoff.io/signoff/internal/jobs"
)

// User is a platform account. Role is USER or ADMIN.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Store is the approval persistence surface. Reads go straight against
// the pool; writes that pair an aggregate mutation with a notice
// enqueue go through InTx.
type Store interface {
	// InTx runs fn inside one transaction. A non-nil error from fn
	// rolls everything back, including enqueued notices.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// GetRequest loads a request with its steps. Returns (nil, nil)
	// when the id is unknown.
	GetRequest(ctx context.Context, id string) (*approval.Request, error)

	// ListByRequester returns a page of the requester's own requests,
	// newest first, with the total count. An empty status means all.
	ListByRequester(ctx context.Context, requesterID string, status approval.Status, page, size int) ([]*approval.Request, int, error)

	// ListPendingForApprover returns the page of PENDING requests whose
	// current step awaits the given approver, newest first.
	ListPendingForApprover(ctx context.Context, approverID string, page, size int) ([]*approval.Request, int, error)
}

// Tx is the transactional write surface handed to InTx callbacks.
type Tx interface {
	// Directory returns a directory view scoped to this transaction so
	// chain building sees the same org snapshot the insert commits
	// against.
	Directory() directory.Directory

	// GetRequestForUpdate loads a request with a row lock, serializing
	// concurrent decisions on the same request. Returns (nil, nil) when
	// the id is unknown.
	GetRequestForUpdate(ctx context.Context, id string) (*approval.Request, error)

	// InsertRequest persists a freshly created request and its steps.
	InsertRequest(ctx context.Context, req *approval.Request) error

	// UpdateRequest persists the aggregate after a transition.
	UpdateRequest(ctx context.Context, req *approval.Request) error

	// EnqueueNotice inserts a decision notice job into the same
	// transaction.
	EnqueueNotice(ctx context.Context, args jobs.DecisionNoticeArgs) error
}
