package mysql

import (
	"context"
	"database/sql/driver"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SLH-Bot/internal/catalog"
	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/history"
	"SLH-Bot/internal/users"
)

const createMigrationsTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`

func TestRunMigrationsAppliesAllFiles(t *testing.T) {
	t.Parallel()

	ops := []mockOperation{
		execOp(createMigrationsTableSQL, mockResult{}),
		queryOp(`SELECT version FROM schema_migrations`, mockRowsData{columns: []string{"version"}}),
	}
	for _, name := range []string{"0001_create_users.sql", "0002_create_products.sql", "0003_create_history_events.sql"} {
		ops = append(ops,
			beginOp(),
			execOp(readMigrationStatement(name), mockResult{}),
			execOp(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, mockResult{rowsAffected: 1}),
			commitOp(),
		)
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	if err := runMigrations(context.Background(), db); err != nil {
		t.Fatalf("run migrations failed: %v", err)
	}
}

func TestRunMigrationsSkipsAppliedVersions(t *testing.T) {
	t.Parallel()

	ops := []mockOperation{
		execOp(createMigrationsTableSQL, mockResult{}),
		queryOp(`SELECT version FROM schema_migrations`, mockRowsData{
			columns: []string{"version"},
			values:  [][]driver.Value{{"0001"}, {"0002"}},
		}),
		beginOp(),
		execOp(readMigrationStatement("0003_create_history_events.sql"), mockResult{}),
		execOp(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, mockResult{rowsAffected: 1}),
		commitOp(),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	if err := runMigrations(context.Background(), db); err != nil {
		t.Fatalf("run migrations failed: %v", err)
	}
}

func TestRunMigrationsRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	ops := []mockOperation{
		execOp(createMigrationsTableSQL, mockResult{}),
		queryOp(`SELECT version FROM schema_migrations`, mockRowsData{
			columns: []string{"version"},
			values:  [][]driver.Value{{"0001"}, {"0002"}},
		}),
		beginOp(),
		failOp(execOp(readMigrationStatement("0003_create_history_events.sql"), mockResult{}), fmt.Errorf("syntax error")),
		rollbackOp(),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	if err := runMigrations(context.Background(), db); err == nil {
		t.Fatalf("expected migration failure")
	}
}

func TestUserRepositoryUpsertAndGet(t *testing.T) {
	t.Parallel()

	created := time.UnixMilli(1_700_000_000_000).UTC()
	ops := []mockOperation{
		execOp(upsertUserSQL, mockResult{rowsAffected: 1}),
		queryOp(selectUserSQL, mockRowsData{
			columns: []string{"id", "username", "first_name", "last_name", "wallet_address", "joined_group", "created_at"},
			values: [][]driver.Value{{
				int64(42), "dana", "Dana", "", "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", int64(1), created.UnixMilli(),
			}},
		}),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	repo := NewStore(db).Users()
	if err := repo.Upsert(context.Background(), users.User{ID: 42, Username: "dana", FirstName: "Dana", CreatedAt: created}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	args := drv.ops[0].args
	if len(args) != 5 || args[0] != int64(42) || args[4] != created.UnixMilli() {
		t.Fatalf("unexpected upsert args: %v", args)
	}

	u, err := repo.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if u.Username != "dana" || !u.JoinedGroup || u.WalletAddress == "" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(created) {
		t.Fatalf("created_at mismatch: %v", u.CreatedAt)
	}
}

func TestUserRepositoryGetMissing(t *testing.T) {
	t.Parallel()

	ops := []mockOperation{
		queryOp(selectUserSQL, mockRowsData{
			columns: []string{"id", "username", "first_name", "last_name", "wallet_address", "joined_group", "created_at"},
		}),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	_, err := NewStore(db).Users().Get(context.Background(), 7)
	if !xerrors.IsCode(err, xerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUserRepositoryNullWallet(t *testing.T) {
	t.Parallel()

	ops := []mockOperation{
		queryOp(selectUserSQL, mockRowsData{
			columns: []string{"id", "username", "first_name", "last_name", "wallet_address", "joined_group", "created_at"},
			values:  [][]driver.Value{{int64(7), "", "", "", nil, int64(0), int64(0)}},
		}),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	u, err := NewStore(db).Users().Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if u.WalletAddress != "" || u.JoinedGroup || !u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserRepositorySetWalletAndJoin(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_123_000)
	ops := []mockOperation{
		execOp(setWalletSQL, mockResult{rowsAffected: 1}),
		execOp(markJoinedSQL, mockResult{rowsAffected: 1}),
		failOp(execOp(setWalletSQL, mockResult{}), fmt.Errorf("connection reset")),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	repo := &UserRepository{db: db, now: func() time.Time { return now }}
	ctx := context.Background()
	if err := repo.SetWallet(ctx, 9, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"); err != nil {
		t.Fatalf("set wallet failed: %v", err)
	}
	if got := drv.ops[0].args; got[1] != "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23" || got[2] != now.UnixMilli() {
		t.Fatalf("unexpected set wallet args: %v", got)
	}
	if err := repo.MarkJoinedGroup(ctx, 9); err != nil {
		t.Fatalf("mark joined failed: %v", err)
	}
	err := repo.SetWallet(ctx, 9, "0x0")
	if !xerrors.IsCode(err, xerrors.CodeStorageFailure) {
		t.Fatalf("expected STORAGE_FAILURE, got %v", err)
	}
}

func TestProductRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	created := time.UnixMilli(1_700_000_000_000).UTC()
	columns := []string{"id", "owner_id", "name", "price", "image_cid", "created_at"}
	ops := []mockOperation{
		execOp(insertProductSQL, mockResult{lastInsertID: 5, rowsAffected: 1}),
		queryOp(listProductsSQL, mockRowsData{
			columns: columns,
			values: [][]driver.Value{
				{int64(5), int64(3), "Sticker pack", []byte("12.500000000000000000"), "", created.UnixMilli()},
				{int64(6), int64(3), "Hoodie", []byte("250.000000000000000000"), "bafy", created.UnixMilli()},
			},
		}),
		queryOp(selectProductSQL, mockRowsData{columns: columns}),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	repo := NewStore(db).Products()
	ctx := context.Background()
	p, err := repo.Add(ctx, catalog.Product{OwnerID: 3, Name: "Sticker pack", Price: decimal.RequireFromString("12.5"), CreatedAt: created})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if p.ID != 5 {
		t.Fatalf("expected id 5, got %d", p.ID)
	}
	if price := drv.ops[0].args[2]; price != "12.5" {
		t.Fatalf("price should be bound as decimal string, got %v", price)
	}

	list, err := repo.ListByOwner(ctx, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 || !list[0].Price.Equal(decimal.RequireFromString("12.5")) || list[1].ImageCID != "bafy" {
		t.Fatalf("unexpected products: %+v", list)
	}

	if _, err := repo.Get(ctx, 99); !xerrors.IsCode(err, xerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestHistoryRepositoryAppendAndList(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1_700_000_000_000).UTC()
	ops := []mockOperation{
		execOp(insertEventSQL, mockResult{rowsAffected: 1}),
		queryOp(listEventsSQL, mockRowsData{
			columns: []string{"id", "user_id", "description", "created_at"},
			values: [][]driver.Value{
				{"b", int64(1), "second", at.Add(time.Minute).UnixMilli()},
				{"a", int64(1), "first", at.UnixMilli()},
			},
		}),
		queryOp(listEventsSQL, mockRowsData{columns: []string{"id", "user_id", "description", "created_at"}}),
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	repo := NewStore(db).History()
	ctx := context.Background()
	event := history.NewEvent(1, "first", at)
	if err := repo.Append(ctx, event); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if got := drv.ops[0].args; got[0] != event.ID || got[3] != at.UnixMilli() {
		t.Fatalf("unexpected append args: %v", got)
	}

	events, err := repo.ListByUser(ctx, 1, 5)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 2 || events[0].Description != "second" || !events[1].CreatedAt.Equal(at) {
		t.Fatalf("unexpected events: %+v", events)
	}

	if _, err := repo.ListByUser(ctx, 1, 0); err != nil {
		t.Fatalf("list with default limit failed: %v", err)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{DSN: "  "})
	if !xerrors.IsCode(err, xerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
	if stdErrors.Unwrap(err) != nil {
		t.Fatalf("validation error should not wrap a cause: %v", err)
	}
}

func readMigrationStatement(name string) string {
	content, err := embeddedMigrations.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to read migration: %v", err))
	}
	statements := splitSQLStatements(string(content))
	if len(statements) != 1 {
		panic(fmt.Sprintf("expected one statement in %s, got %d", name, len(statements)))
	}
	return statements[0]
}
