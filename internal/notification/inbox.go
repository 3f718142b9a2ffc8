package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"signoff.io/signoff/internal/pkg/logger"
)

// Notification is one inbox row.
type Notification struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	Read         bool       `json:"read"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
}

// DB is the query surface the inbox needs; both *pgxpool.Pool and
// pgx.Tx satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Inbox stores notifications in PostgreSQL and serves the inbox API.
type Inbox struct {
	db DB
}

// NewInbox creates an inbox over the given database handle.
func NewInbox(db DB) *Inbox {
	return &Inbox{db: db}
}

// compile-time check
var _ Sender = (*Inbox)(nil)

// Send stores a single notification row.
func (i *Inbox) Send(ctx context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	_, err := i.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, resource_type, resource_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, now())`,
		uuid.NewString(),
		params.RecipientID,
		params.Type,
		params.Title,
		params.Message,
		params.ResourceType,
		params.ResourceID,
	)
	if err != nil {
		return fmt.Errorf("create notification for user %s: %w", params.RecipientID, err)
	}

	logger.Debug("notification sent",
		zap.String("recipient", params.RecipientID),
		zap.String("type", params.Type),
		zap.String("title", params.Title),
	)
	return nil
}

// SendToMany creates notifications for multiple recipients. Failures
// are logged but do not prevent delivery to other recipients.
func (i *Inbox) SendToMany(ctx context.Context, recipientIDs []string, params Params) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	var failCount int
	for _, recipientID := range recipientIDs {
		p := params
		p.RecipientID = recipientID
		if err := i.Send(ctx, p); err != nil {
			failCount++
			logDeliveryFailure(recipientID, params, err)
		}
	}

	if failCount > 0 {
		return fmt.Errorf("notification delivery failed for %d/%d recipients", failCount, len(recipientIDs))
	}
	return nil
}

// ListForUser returns a page of the user's notifications, newest first,
// together with the total count. unreadOnly narrows to unread rows.
func (i *Inbox) ListForUser(ctx context.Context, userID string, unreadOnly bool, page, size int) ([]Notification, int, error) {
	where := "user_id = $1"
	if unreadOnly {
		where += " AND read = false"
	}

	var total int
	if err := i.db.QueryRow(ctx,
		"SELECT count(*) FROM notifications WHERE "+where, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications for user %s: %w", userID, err)
	}

	rows, err := i.db.Query(ctx, `
		SELECT id, user_id, type, title, message, resource_type, resource_id, read, created_at, read_at
		FROM notifications
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, size, (page-1)*size,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.ResourceType, &n.ResourceID, &n.Read, &n.CreatedAt, &n.ReadAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan notification row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notification rows: %w", err)
	}
	return out, total, nil
}

// MarkRead marks one of the user's notifications as read. Returns false
// when the notification does not exist or belongs to someone else.
func (i *Inbox) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	tag, err := i.db.Exec(ctx, `
		UPDATE notifications
		SET read = true, read_at = now()
		WHERE id = $1 AND user_id = $2 AND read = false`,
		notificationID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many rows changed.
func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := i.db.Exec(ctx, `
		UPDATE notifications
		SET read = true, read_at = now()
		WHERE user_id = $1 AND read = false`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read for user %s: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

// PurgeBefore deletes notifications created before the cutoff and
// returns how many rows were removed. Used by the periodic cleanup job.
func (i *Inbox) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := i.db.Exec(ctx,
		"DELETE FROM notifications WHERE created_at < $1", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}
