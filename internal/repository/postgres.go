package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"

	"signoff.io/signoff/internal/directory"
	"signoff.io/signoff/internal/domain/approval"
	"signoff.io/signoff/internal/jobs"
)

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is the PostgreSQL store.
type PG struct {
	pool  *pgxpool.Pool
	river *river.Client[pgx.Tx]
}

// NewPG creates a store over the shared pool. The River client is used
// for transactional notice enqueues and may be nil in read-only tools.
func NewPG(pool *pgxpool.Pool, riverClient *river.Client[pgx.Tx]) *PG {
	return &PG{pool: pool, river: riverClient}
}

// compile-time check
var _ Store = (*PG)(nil)

// InTx runs fn inside one transaction and commits when it returns nil.
func (p *PG) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx, river: p.river}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetRequest loads a request with its steps.
func (p *PG) GetRequest(ctx context.Context, id string) (*approval.Request, error) {
	return loadRequest(ctx, p.pool, id, false)
}

// ListByRequester returns a page of the requester's own requests.
func (p *PG) ListByRequester(ctx context.Context, requesterID string, status approval.Status, page, size int) ([]*approval.Request, int, error) {
	where := "requester_id = $1"
	args := []any{requesterID}
	if status != "" {
		where += " AND status = $2"
		args = append(args, string(status))
	}

	var total int
	if err := p.pool.QueryRow(ctx,
		"SELECT count(*) FROM approval_requests WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests for requester %s: %w", requesterID, err)
	}

	limitPos := len(args) + 1
	args = append(args, size, (page-1)*size)
	ids, err := collectIDs(ctx, p.pool, fmt.Sprintf(`
		SELECT id FROM approval_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, limitPos, limitPos+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests for requester %s: %w", requesterID, err)
	}

	reqs, err := loadRequests(ctx, p.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// ListPendingForApprover returns PENDING requests whose current step
// awaits the approver. The current step is the lowest-order PENDING
// step, so later steps of the same request never show up early.
func (p *PG) ListPendingForApprover(ctx context.Context, approverID string, page, size int) ([]*approval.Request, int, error) {
	const where = `
		r.status = 'PENDING'
		AND s.status = 'PENDING'
		AND s.approver_id = $1
		AND s.step_order = (
			SELECT min(s2.step_order) FROM approval_steps s2
			WHERE s2.request_id = r.id AND s2.status = 'PENDING'
		)`

	var total int
	if err := p.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM approval_requests r
		JOIN approval_steps s ON s.request_id = r.id
		WHERE `+where, approverID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pending requests for approver %s: %w", approverID, err)
	}

	ids, err := collectIDs(ctx, p.pool, `
		SELECT r.id
		FROM approval_requests r
		JOIN approval_steps s ON s.request_id = r.id
		WHERE `+where+`
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`, approverID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending requests for approver %s: %w", approverID, err)
	}

	reqs, err := loadRequests(ctx, p.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// pgTx is the transactional write surface.
type pgTx struct {
	tx    pgx.Tx
	river *river.Client[pgx.Tx]
}

var _ Tx = (*pgTx)(nil)

func (t *pgTx) Directory() directory.Directory {
	return &pgDirectory{q: t.tx}
}

func (t *pgTx) GetRequestForUpdate(ctx context.Context, id string) (*approval.Request, error) {
	return loadRequest(ctx, t.tx, id, true)
}

func (t *pgTx) InsertRequest(ctx context.Context, req *approval.Request) error {
	detail, err := approval.MarshalDetail(req.Detail())
	if err != nil {
		return fmt.Errorf("marshal detail for request %s: %w", req.ID(), err)
	}

	if _, err := t.tx.Exec(ctx, `
		INSERT INTO approval_requests (id, request_type, status, requester_id, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID(), string(req.Type()), string(req.Status()), req.RequesterID(),
		detail, req.CreatedAt(), req.UpdatedAt(),
	); err != nil {
		return fmt.Errorf("insert request %s: %w", req.ID(), err)
	}

	for _, s := range req.Steps() {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO approval_steps (request_id, step_order, approver_id, status, comment, decided_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			req.ID(), s.Order, s.ApproverID, string(s.Status), s.Comment, s.DecidedAt, s.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert step %d of request %s: %w", s.Order, req.ID(), err)
		}
	}
	return nil
}

func (t *pgTx) UpdateRequest(ctx context.Context, req *approval.Request) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE approval_requests
		SET status = $2, updated_at = $3
		WHERE id = $1`,
		req.ID(), string(req.Status()), req.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update request %s: %w", req.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update request %s: row missing", req.ID())
	}

	for _, s := range req.Steps() {
		if _, err := t.tx.Exec(ctx, `
			UPDATE approval_steps
			SET status = $3, comment = $4, decided_at = $5
			WHERE request_id = $1 AND step_order = $2`,
			req.ID(), s.Order, string(s.Status), s.Comment, s.DecidedAt,
		); err != nil {
			return fmt.Errorf("update step %d of request %s: %w", s.Order, req.ID(), err)
		}
	}
	return nil
}

func (t *pgTx) EnqueueNotice(ctx context.Context, args jobs.DecisionNoticeArgs) error {
	if t.river == nil {
		return fmt.Errorf("river client is not configured")
	}
	if _, err := t.river.InsertTx(ctx, t.tx, args, nil); err != nil {
		return fmt.Errorf("enqueue decision notice for request %s: %w", args.RequestID, err)
	}
	return nil
}

// --- row loading ---

func loadRequest(ctx context.Context, q querier, id string, forUpdate bool) (*approval.Request, error) {
	query := `
		SELECT id, request_type, status, requester_id, detail, created_at, updated_at
		FROM approval_requests
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		reqID, typ, status, requesterID string
		detailJSON                      []byte
		createdAt                       time.Time
		updatedAt                       *time.Time
	)
	err := q.QueryRow(ctx, query, id).Scan(&reqID, &typ, &status, &requesterID, &detailJSON, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", id, err)
	}

	detail, err := approval.UnmarshalDetail(approval.Type(typ), detailJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshal detail of request %s: %w", id, err)
	}

	steps, err := loadSteps(ctx, q, reqID)
	if err != nil {
		return nil, err
	}

	return approval.Reconstitute(
		reqID, approval.Type(typ), approval.Status(status), requesterID,
		detail, steps, createdAt, updatedAt,
	), nil
}

func loadSteps(ctx context.Context, q querier, requestID string) ([]approval.Step, error) {
	rows, err := q.Query(ctx, `
		SELECT step_order, approver_id, status, comment, decided_at, created_at
		FROM approval_steps
		WHERE request_id = $1
		ORDER BY step_order`, requestID)
	if err != nil {
		return nil, fmt.Errorf("load steps of request %s: %w", requestID, err)
	}
	defer rows.Close()

	var steps []approval.Step
	for rows.Next() {
		var (
			s      approval.Step
			status string
		)
		if err := rows.Scan(&s.Order, &s.ApproverID, &status, &s.Comment, &s.DecidedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan step of request %s: %w", requestID, err)
		}
		s.Status = approval.Status(status)
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps of request %s: %w", requestID, err)
	}
	return steps, nil
}

func loadRequests(ctx context.Context, q querier, ids []string) ([]*approval.Request, error) {
	out := make([]*approval.Request, 0, len(ids))
	for _, id := range ids {
		req, err := loadRequest(ctx, q, id, false)
		if err != nil {
			return nil, err
		}
		if req == nil {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func collectIDs(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, query, args...)
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
