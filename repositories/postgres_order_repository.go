package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-desk/models"
)

type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

func NewPostgresOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

const orderColumns = `o.id, o.user_id, o.items, o.total_price, o.status, o.version, o.created_at, o.updated_at`

func scanOrder(row pgx.Row, extra ...any) (*models.Order, error) {
	order := &models.Order{}
	var userID *string
	var status string
	dest := append([]any{
		&order.ID,
		&userID,
		&order.Items,
		&order.TotalPrice,
		&status,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if userID != nil {
		order.User = *userID
	}
	if order.Items == nil {
		order.Items = []models.LineItem{}
	}
	order.Status = models.OrderStatus(status)
	return order, nil
}

func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, items, total_price, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		RETURNING version, created_at, updated_at
	`
	var owner *string
	if order.User != "" {
		owner = &order.User
	}

	id := uuid.NewString()
	err := r.db.QueryRow(ctx, query,
		id,
		owner,
		order.Items,
		order.TotalPrice,
		string(order.Status),
		time.Now().UTC(),
	).Scan(&order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	order.ID = id
	return nil
}

func (r *PostgresOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	return scanOrder(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresOrderRepository) FindAll(ctx context.Context, page models.Page) ([]models.OrderWithOwner, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `, u.id, u.name, u.email
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
	`
	args := []any{}
	if page.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, page.Limit, page.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.OrderWithOwner{}
	for rows.Next() {
		var ownerID, ownerName, ownerEmail *string
		order, err := scanOrder(rows, &ownerID, &ownerName, &ownerEmail)
		if err != nil {
			return nil, 0, err
		}

		var owner *models.OrderOwner
		if ownerID != nil {
			owner = &models.OrderOwner{ID: *ownerID, Name: deref(ownerName), Email: deref(ownerEmail)}
		}
		orders = append(orders, models.NewOrderWithOwner(*order, owner))
	}
	return orders, total, rows.Err()
}

func (r *PostgresOrderRepository) FindByUser(ctx context.Context, userID string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *PostgresOrderRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET items = $1, total_price = $2, status = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		order.Items,
		order.TotalPrice,
		string(order.Status),
		time.Now().UTC(),
		order.ID,
		order.Version,
	).Scan(&order.Version, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrConflict(ctx, order.ID)
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM orders WHERE id = $1 AND ($2::bigint = 0 OR version = $2)`,
		id, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *PostgresOrderRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
