// Package audit implements the audit trail.
//
// Audit logs are append-only compliance records. Hard-delete is NOT
// allowed. Writes are pushed off the request path through the audit
// worker pool and are best-effort.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"signoff.io/signoff/internal/pkg/logger"
	"signoff.io/signoff/internal/pkg/worker"
)

// Logger writes audit records to the database.
type Logger struct {
	pool  *pgxpool.Pool
	pools *worker.Pools
}

// NewLogger creates an audit Logger. A nil receiver or nil pool makes
// every Record call a no-op, which keeps tests and tools simple.
func NewLogger(pool *pgxpool.Pool, pools *worker.Pools) *Logger {
	return &Logger{pool: pool, pools: pools}
}

// Record queues one audit row for asynchronous insertion. Failures are
// logged, never propagated.
func (l *Logger) Record(action, resourceType, resourceID, actor string, details map[string]interface{}) {
	if l == nil || l.pool == nil {
		return
	}

	write := func(ctx context.Context) {
		if err := l.insert(ctx, action, resourceType, resourceID, actor, details); err != nil {
			logger.Warn("Failed to write audit log",
				zap.String("action", action),
				zap.String("resource_type", resourceType),
				zap.String("resource_id", resourceID),
				zap.Error(err),
			)
		}
	}

	if l.pools == nil {
		write(context.Background())
		return
	}
	if err := l.pools.SubmitDetached("audit", write); err != nil {
		logger.Warn("Failed to submit audit write",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// RecordDecision records an approval lifecycle action such as
// approval.approve or approval.cancel.
func (l *Logger) RecordDecision(requestID, decision, actor string) {
	l.Record("approval."+decision, "approval_request", requestID, actor, map[string]interface{}{
		"decision": decision,
	})
}

func (l *Logger) insert(ctx context.Context, action, resourceType, resourceID, actor string, details map[string]interface{}) error {
	var detailJSON []byte
	if details != nil {
		var err error
		if detailJSON, err = json.Marshal(details); err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	if _, err := l.pool.Exec(ctx, `
		INSERT INTO audit_logs (action, resource_type, resource_id, actor, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		action, resourceType, resourceID, actor, detailJSON,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
