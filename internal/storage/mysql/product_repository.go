package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"SLH-Bot/internal/catalog"
	xerrors "SLH-Bot/internal/errors"
)

const (
	insertProductSQL = `INSERT INTO products (owner_id, name, price, image_cid, created_at)
    VALUES (?, ?, ?, ?, ?)`
	listProductsSQL = `SELECT id, owner_id, name, price, image_cid, created_at
    FROM products WHERE owner_id = ? ORDER BY id`
	selectProductSQL = `SELECT id, owner_id, name, price, image_cid, created_at
    FROM products WHERE id = ?`
)

// ProductRepository implements catalog.Repository. Prices travel as decimal
// strings so DECIMAL columns keep full precision.
type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func (r *ProductRepository) Add(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.CreatedAt.IsZero() {
		if r.now != nil {
			p.CreatedAt = r.now().UTC()
		} else {
			p.CreatedAt = time.Now().UTC()
		}
	}
	res, err := r.db.ExecContext(ctx, insertProductSQL, p.OwnerID, p.Name, p.Price.String(), p.ImageCID, toMillis(p.CreatedAt))
	if err != nil {
		return catalog.Product{}, storageError(err, "保存商品失败")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return catalog.Product{}, storageError(err, "获取商品 ID 失败")
	}
	p.ID = id
	return p, nil
}

func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID int64) ([]catalog.Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsSQL, ownerID)
	if err != nil {
		return nil, storageError(err, "查询商品失败")
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "遍历商品失败")
	}
	return out, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProductSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, xerrors.New(xerrors.CodeNotFound, "product not found")
	}
	return p, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var (
		p       catalog.Product
		price   string
		created int64
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &price, &p.ImageCID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Product{}, err
		}
		return catalog.Product{}, storageError(err, "解析商品失败")
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return catalog.Product{}, storageError(err, "解析商品价格失败")
	}
	p.Price = parsed
	p.CreatedAt = fromMillis(created)
	return p, nil
}

var _ catalog.Repository = (*ProductRepository)(nil)
