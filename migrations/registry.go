package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	wallets "github.com/goliatone/go-wallets"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const rootPath = "data/sql/migrations"

type Option func(*lookup)

type lookup struct {
	source fs.FS
}

// WithSource reads migrations from fsys instead of the embedded tree. A nil
// fsys is ignored.
func WithSource(fsys fs.FS) Option {
	return func(l *lookup) {
		if fsys != nil {
			l.source = fsys
		}
	}
}

// NormalizeDialect maps driver style names onto DialectPostgres and
// DialectSQLite.
func NormalizeDialect(dialect string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectPostgres, "postgresql", "pg":
		return DialectPostgres, nil
	case DialectSQLite, "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

// ForDialect returns the wallet_state migration tree for dialect. Postgres
// files live at data/sql/migrations and sqlite files under its sqlite
// directory.
func ForDialect(dialect string, opts ...Option) (fs.FS, error) {
	normalized, err := NormalizeDialect(dialect)
	if err != nil {
		return nil, err
	}
	l := lookup{source: wallets.GetMigrationsFS()}
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}

	base, err := fs.Sub(l.source, rootPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
	}
	fsys := base
	if normalized == DialectSQLite {
		if fsys, err = fs.Sub(base, "sqlite"); err != nil {
			return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
		}
	}

	matches, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s: %w", normalized, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("migrations: no %s *.up.sql files found", normalized)
	}
	return fsys, nil
}
