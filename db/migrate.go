package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is portable between MySQL and SQLite: no engine options, no
// foreign keys, `?` placeholders only. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(26) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id CHAR(26) PRIMARY KEY,
		owner_id CHAR(26) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		location VARCHAR(255) NOT NULL,
		phone VARCHAR(50) NOT NULL,
		image_url VARCHAR(512) NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id CHAR(26) PRIMARY KEY,
		store_id CHAR(26) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(100) NOT NULL,
		price INTEGER NOT NULL,
		unit VARCHAR(50) NOT NULL,
		stock INTEGER NOT NULL,
		image_url VARCHAR(512) NOT NULL,
		negotiable BOOLEAN NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(26) PRIMARY KEY,
		customer_id CHAR(26) NOT NULL,
		status VARCHAR(20) NOT NULL,
		total BIGINT NOT NULL,
		address TEXT NOT NULL,
		phone VARCHAR(50) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id CHAR(26) PRIMARY KEY,
		order_id CHAR(26) NOT NULL,
		product_id CHAR(26) NOT NULL,
		store_id CHAR(26) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL,
		listed_price INTEGER NOT NULL,
		subtotal BIGINT NOT NULL
	)`,
}

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
