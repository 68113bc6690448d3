package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"learnhub/api/internal/models"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, order models.Order) error {
	const query = `
		INSERT INTO orders (id, user_id, course_id, payment_info, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, order.ID, order.UserID, order.CourseID, order.PaymentInfo, order.CreatedAt)
	return err
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, course_id, payment_info, created_at FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CourseID, &o.PaymentInfo, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// NewPostgresStores wires every contract onto one pool.
func NewPostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Users:         NewUserRepository(pool),
		Courses:       NewCourseRepository(pool),
		Notifications: NewNotificationRepository(pool),
		Orders:        NewOrderRepository(pool),
	}
}
