package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderPending         = "Pending"
	OrderPreparing       = "Preparing"
	OrderRejected        = "Rejected"
	OrderWaitingDelivery = "Waiting Delivery"
	OrderDelivering      = "Delivering"
	OrderDelivered       = "Successfully Delivered"
)

// InactiveOrderStatuses are the statuses in which an order is not being worked on.
var InactiveOrderStatuses = []string{OrderPending, OrderRejected, OrderDelivered}

// Order is a customer's order.
type Order struct {
	ID     string      `json:"_id"`
	UserID string      `json:"userId"`
	Items  []OrderItem `json:"items"`
	Status string      `json:"status"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ItemID   string `json:"itemId,omitempty"`
	ItemName string `json:"itemName,omitempty"`
	Quantity int    `json:"quantity"`
}

// OrderFilter narrows ListOrders. Zero fields do not filter.
type OrderFilter struct {
	UserID        string
	Statuses      []string
	ExcludeStatus []string
	Limit         int
}

const orderColumns = `id, user_id, items, status`

// CreateOrder stores a new Pending order for userID.
func (s *Store) CreateOrder(ctx context.Context, userID string, items []OrderItem) (Order, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return Order{}, fmt.Errorf("create order: encode items: %w", err)
	}
	o := Order{ID: uuid.NewString(), UserID: userID, Items: items, Status: OrderPending}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(raw), o.Status, s.now().UTC(),
	)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// GetOrder returns the order with id, or ErrNotFound.
func (s *Store) GetOrder(ctx context.Context, id string) (Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// ListOrders returns the orders matching f, oldest first.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`
	var args []any
	if f.UserID != "" {
		q += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	clause, statusArgs := statusClause(f.Statuses, f.ExcludeStatus)
	q += clause + ` ORDER BY created_at, id`
	args = append(args, statusArgs...)
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus sets the status of the order with id and returns the
// updated order.
func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string) (Order, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return Order{}, err
	}
	return s.GetOrder(ctx, id)
}

func scanOrder(sc scanner) (Order, error) {
	var (
		o   Order
		raw string
	)
	if err := sc.Scan(&o.ID, &o.UserID, &raw, &o.Status); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal([]byte(raw), &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return o, nil
}
