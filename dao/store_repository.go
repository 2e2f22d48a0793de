package dao

import (
	"context"
	"database/sql"
	"errors"

	"camgrocer/model"
)

type StoreRepository struct {
	db *sql.DB
}

func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

const storeColumns = `id, owner_id, name, description, location, phone, image_url, status, created_at, updated_at`

func (r *StoreRepository) Insert(ctx context.Context, s *model.Store) error {
	query := `INSERT INTO stores (` + storeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.OwnerID, s.Name, s.Description, s.Location, s.Phone, s.ImageURL, s.Status, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ?`, id)

	var s model.Store
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Location, &s.Phone, &s.ImageURL, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &s, nil
}

// List returns stores filtered by owner and status; empty strings match all.
func (r *StoreRepository) List(ctx context.Context, ownerID, status string) ([]model.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE 1 = 1`
	var args []any
	if ownerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []model.Store{}
	for rows.Next() {
		var s model.Store
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Location, &s.Phone, &s.ImageURL, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *StoreRepository) Update(ctx context.Context, s *model.Store) error {
	query := `
		UPDATE stores
		SET name = ?, description = ?, location = ?, phone = ?, image_url = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, s.Name, s.Description, s.Location, s.Phone, s.ImageURL, s.Status, s.UpdatedAt, s.ID)
	return err
}

// Delete removes the store together with its products.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE store_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
