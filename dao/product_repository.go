package dao

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"camgrocer/model"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `p.id, p.store_id, p.name, p.description, p.category, p.price, p.unit, p.stock, p.image_url, p.negotiable, p.status, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *model.Product) error {
	return row.Scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Unit, &p.Stock, &p.ImageURL, &p.Negotiable, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) Insert(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, store_id, name, description, category, price, unit, stock, image_url, negotiable, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.StoreID, p.Name, p.Description, p.Category, p.Price, p.Unit, p.Stock, p.ImageURL, p.Negotiable, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)

	var p model.Product
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p`
	var (
		where []string
		args  []any
	)
	if f.PublicOnly {
		query += ` JOIN stores s ON s.id = p.store_id`
		where = append(where, `p.status = ?`, `s.status = ?`)
		args = append(args, model.StatusApproved, model.StatusApproved)
	} else if f.Status != "" {
		where = append(where, `p.status = ?`)
		args = append(args, f.Status)
	}
	if f.StoreID != "" {
		where = append(where, `p.store_id = ?`)
		args = append(args, f.StoreID)
	}
	if f.Category != "" {
		where = append(where, `LOWER(p.category) = ?`)
		args = append(args, strings.ToLower(f.Category))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		where = append(where, `LOWER(p.name) LIKE ?`)
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, category = ?, price = ?, unit = ?, stock = ?, image_url = ?, negotiable = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Category, p.Price, p.Unit, p.Stock, p.ImageURL, p.Negotiable, p.Status, p.UpdatedAt, p.ID)
	return err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}
