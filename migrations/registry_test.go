package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	wallets "github.com/goliatone/go-wallets"
	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
)

func TestForDialect_ReturnsEmbeddedTrees(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, "postgresql", DialectSQLite, "sqlite3"} {
		fsys, err := ForDialect(dialect)
		if err != nil {
			t.Fatalf("for dialect %s: %v", dialect, err)
		}
		matches, err := fs.Glob(fsys, "*.sql")
		if err != nil {
			t.Fatalf("glob %s: %v", dialect, err)
		}
		want := []string{"00001_wallet_state.down.sql", "00001_wallet_state.up.sql"}
		if diff := cmp.Diff(want, matches); diff != "" {
			t.Fatalf("unexpected %s files (-want +got):\n%s", dialect, diff)
		}
	}
}

func TestForDialect_SQLiteAndPostgresDiffer(t *testing.T) {
	pg, err := ForDialect(DialectPostgres)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	lite, err := ForDialect(DialectSQLite)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	pgUp, _ := fs.ReadFile(pg, "00001_wallet_state.up.sql")
	liteUp, _ := fs.ReadFile(lite, "00001_wallet_state.up.sql")
	if string(pgUp) == string(liteUp) {
		t.Fatalf("expected dialect specific DDL")
	}
}

func TestForDialect_CustomSource(t *testing.T) {
	source := fstest.MapFS{
		"data/sql/migrations/00002_extra.up.sql":        &fstest.MapFile{Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00002_extra.up.sql": &fstest.MapFile{Data: []byte("SELECT 2;")},
	}
	fsys, err := ForDialect(DialectSQLite, WithSource(source))
	if err != nil {
		t.Fatalf("custom source: %v", err)
	}
	content, err := fs.ReadFile(fsys, "00002_extra.up.sql")
	if err != nil || string(content) != "SELECT 2;" {
		t.Fatalf("expected sqlite file from custom source, got %q %v", content, err)
	}
	if _, err := ForDialect(DialectSQLite, WithSource(nil)); err != nil {
		t.Fatalf("nil source must fall back to the embedded tree: %v", err)
	}
}

func TestForDialect_Rejects(t *testing.T) {
	if _, err := ForDialect("mysql"); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
	empty := fstest.MapFS{"data/sql/migrations/README.md": &fstest.MapFile{Data: []byte("nothing here")}}
	if _, err := ForDialect(DialectPostgres, WithSource(empty)); err == nil {
		t.Fatalf("expected missing migrations error")
	}
}

func TestSQLiteWalletStateMigration_ApplyAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file:migrations-wallet-state?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := ForDialect(DialectSQLite)
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_wallet_state.up.sql"); err != nil {
		t.Fatalf("apply up: %v", err)
	}

	insert := `INSERT INTO wallet_state (id, storage_key, payload) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "a", "wallet.connection", []byte("{}")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "b", "wallet.connection", []byte("{}")); err == nil {
		t.Fatalf("expected unique storage_key violation")
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_wallet_state.down.sql"); err != nil {
		t.Fatalf("apply down: %v", err)
	}
	var tableCount int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		"wallet_state",
	).Scan(&tableCount); err != nil {
		t.Fatalf("query table after down: %v", err)
	}
	if tableCount != 0 {
		t.Fatalf("expected wallet_state to be dropped after down migration")
	}
}

func TestEmbeddedTree_HasContent(t *testing.T) {
	root := wallets.GetMigrationsFS()
	for _, name := range []string{
		"data/sql/migrations/00001_wallet_state.up.sql",
		"data/sql/migrations/sqlite/00001_wallet_state.up.sql",
	} {
		content, err := fs.ReadFile(root, name)
		if err != nil || strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected SQL in %s: %v", name, err)
		}
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
