package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnhub/api/internal/models"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) error {
	const query = `
		INSERT INTO notifications (id, user_id, title, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := r.pool.Exec(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.Status, n.CreatedAt)
	return err
}

func (r *NotificationRepository) Get(ctx context.Context, id string) (models.Notification, error) {
	const query = `
		SELECT id, user_id, title, message, status, created_at, updated_at
		FROM notifications WHERE id = $1
	`
	return scanNotification(r.pool.QueryRow(ctx, query, id))
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE notifications
		SET updated_at = CASE WHEN status = 'unread' THEN $2 ELSE updated_at END,
		    status = 'read'
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	const query = `
		SELECT id, user_id, title, message, status, created_at, updated_at
		FROM notifications ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE status = 'read' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Notification{}, ErrNotFound
		}
		return models.Notification{}, err
	}
	return n, nil
}
