package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, name, description, category, image_url, price,
		stock_count, shipping_cost, free_shipping, created_at, updated_at, version)
	VALUES
		(:product_id, :name, :description, :category, :image_url, :price,
		:stock_count, :shipping_cost, :free_shipping, :created_at, :updated_at, :version)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		name = :name,
		description = :description,
		category = :category,
		image_url = :image_url,
		price = :price,
		stock_count = :stock_count,
		shipping_cost = :shipping_cost,
		free_shipping = :free_shipping,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, p)
	if err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product[%s] version %d is stale", p.ID, p.Version)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("fetching product[%s]: %w", id, err)
	}
	return p, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Product, error) {
	const q = `SELECT * FROM products ORDER BY created_at, product_id`

	ps := []Product{}
	if err := sqlx.SelectContext(ctx, db, &ps, q); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return ps, nil
}

func FetchByCategory(ctx context.Context, db sqlx.ExtContext, category string) ([]Product, error) {
	const q = `SELECT * FROM products WHERE category = $1 ORDER BY created_at, product_id`

	ps := []Product{}
	if err := sqlx.SelectContext(ctx, db, &ps, q, category); err != nil {
		return nil, fmt.Errorf("listing products in %q: %w", category, err)
	}
	return ps, nil
}

func FetchMany(ctx context.Context, db sqlx.ExtContext, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	q, args, err := sqlx.In(`SELECT * FROM products WHERE product_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("building products query: %w", err)
	}

	q = sqlx.Rebind(sqlx.DOLLAR, q)
	ps := []Product{}
	if err := sqlx.SelectContext(ctx, db, &ps, q, args...); err != nil {
		return nil, fmt.Errorf("listing products by id: %w", err)
	}
	return ps, nil
}
