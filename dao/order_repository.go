package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"camgrocer/model"
)

// ErrOutOfStock is returned when an order asks for more than a product has left.
var ErrOutOfStock = errors.New("out of stock")

// ErrStaleStatus reports that the order changed status since it was read.
var ErrStaleStatus = errors.New("order status changed concurrently")

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `o.id, o.customer_id, o.status, o.total, o.address, o.phone, o.created_at, o.updated_at`

// Create stores the order and its items and takes the quantities out of
// stock, all in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range o.Items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
			it.Quantity, o.CreatedAt, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%s: %w", it.ProductName, ErrOutOfStock)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, status, total, address, phone, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.Status, o.Total, o.Address, o.Phone, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, store_id, product_name, quantity, unit_price, listed_price, subtotal) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, o.ID, it.ProductID, it.StoreID, it.ProductName, it.Quantity, it.UnitPrice, it.ListedPrice, it.Subtotal)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id)

	var o model.Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}

	items, err := r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.customer_id = ? ORDER BY o.created_at DESC, o.id DESC`, customerID)
}

// ListByStore returns every order that contains at least one item from the store.
func (r *OrderRepository) ListByStore(ctx context.Context, storeID string) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders o
		WHERE o.id IN (SELECT i.order_id FROM order_items i WHERE i.store_id = ?)
		ORDER BY o.created_at DESC, o.id DESC
	`
	return r.list(ctx, query, storeID)
}

func (r *OrderRepository) ListAll(ctx context.Context, status string) ([]model.Order, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders o ORDER BY o.created_at DESC, o.id DESC`)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.status = ? ORDER BY o.created_at DESC, o.id DESC`, status)
}

// UpdateStatus moves the order from o.Status to status. The write only
// applies while the stored status still equals o.Status; otherwise it
// returns ErrStaleStatus. With restock set, the item quantities go back into
// product stock in the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *model.Order, status string, restock bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, status, now, o.ID, o.Status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("order %s: %w", o.ID, ErrStaleStatus)
	}
	if restock {
		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`, it.Quantity, now, it.ProductID); err != nil {
				return fmt.Errorf("restock: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	o.Status = status
	o.UpdatedAt = now
	return nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	orders, err := r.scanOrders(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// Items are loaded after the order rows are closed; SQLite runs on one connection.
	for i := range orders {
		items, err := r.items(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *OrderRepository) scanOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) items(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, store_id, product_name, quantity, unit_price, listed_price, subtotal
		FROM order_items WHERE order_id = ? ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.StoreID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.ListedPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
