package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/users"
)

const (
	upsertUserSQL = `INSERT INTO users (id, username, first_name, last_name, created_at)
    VALUES (?, ?, ?, ?, ?)
    ON DUPLICATE KEY UPDATE username = VALUES(username), first_name = VALUES(first_name), last_name = VALUES(last_name)`
	selectUserSQL = `SELECT id, username, first_name, last_name, wallet_address, joined_group, created_at
    FROM users WHERE id = ?`
	setWalletSQL = `INSERT INTO users (id, wallet_address, created_at) VALUES (?, ?, ?)
    ON DUPLICATE KEY UPDATE wallet_address = VALUES(wallet_address)`
	markJoinedSQL = `INSERT INTO users (id, joined_group, created_at) VALUES (?, 1, ?)
    ON DUPLICATE KEY UPDATE joined_group = 1`
)

// UserRepository implements users.Repository on the users table.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func (r *UserRepository) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *UserRepository) Upsert(ctx context.Context, u users.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = r.clock()
	}
	if _, err := r.db.ExecContext(ctx, upsertUserSQL, u.ID, u.Username, u.FirstName, u.LastName, toMillis(created)); err != nil {
		return storageError(err, "保存用户失败")
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (users.User, error) {
	var (
		u       users.User
		wallet  sql.NullString
		created int64
	)
	err := r.db.QueryRowContext(ctx, selectUserSQL, id).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &wallet, &u.JoinedGroup, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, xerrors.New(xerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return users.User{}, storageError(err, "查询用户失败")
	}
	u.WalletAddress = wallet.String
	u.CreatedAt = fromMillis(created)
	return u, nil
}

func (r *UserRepository) SetWallet(ctx context.Context, id int64, address string) error {
	if _, err := r.db.ExecContext(ctx, setWalletSQL, id, address, toMillis(r.clock())); err != nil {
		return storageError(err, "保存钱包地址失败")
	}
	return nil
}

func (r *UserRepository) MarkJoinedGroup(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markJoinedSQL, id, toMillis(r.clock())); err != nil {
		return storageError(err, "更新入群状态失败")
	}
	return nil
}

var _ users.Repository = (*UserRepository)(nil)
