package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhub/internal/model"
	"taskhub/pkg/otel"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT        NOT NULL,
    level      TEXT        NOT NULL,
    title      TEXT        NOT NULL,
    message    TEXT        NOT NULL DEFAULT '',
    is_read    BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC);
`

// NotificationRepository is the per-user notification feed in Postgres
type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the notifications table when missing
func (r *NotificationRepository) EnsureSchema(ctx context.Context) error {
	return otel.DB(ctx, "migrate", "create notifications", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, schema)
		return err
	})
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	query := `
        INSERT INTO notifications (user_id, level, title, message)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := otel.DB(ctx, "insert", query, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, n.UserID, n.Level, n.Title, n.Message).Scan(&n.ID, &n.CreatedAt)
	})
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.String("user_id", n.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("insert notification: %w", err)
	}

	r.logger.Debug("Notification inserted",
		zap.Int64("id", n.ID),
		zap.String("user_id", n.UserID),
	)
	return nil
}

// ListByUser returns the newest notifications first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, user_id, level, title, message, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	var out []model.Notification
	err := otel.DB(ctx, "select", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, userID, limit)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Notification, error) {
			var n model.Notification
			err := row.Scan(&n.ID, &n.UserID, &n.Level, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
			return n, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkAsRead only touches rows owned by userID
func (r *NotificationRepository) MarkAsRead(ctx context.Context, userID string, id int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	return otel.DB(ctx, "update", query, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query, id, userID)
		return err
	})
}
