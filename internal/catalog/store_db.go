package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	seedTimeout  = 10 * time.Second
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

func (d Dialect) arg(n int) string {
	if d == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// OpenDB opens a catalog database. postgres:// and postgresql:// DSNs go
// through the pgx driver; sqlite://<path> opens a SQLite file.
func OpenDB(dsn string) (*sql.DB, Dialect, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := sql.Open("pgx", dsn)
		return db, Postgres, err
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err := sql.Open("sqlite", strings.TrimPrefix(dsn, "sqlite://"))
		return db, SQLite, err
	default:
		return nil, 0, fmt.Errorf("unsupported catalog dsn scheme: %q", dsn)
	}
}

// SQLStore reads products from a products table. Tags and stats are stored
// as JSON text so both dialects share one schema.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

const productColumns = `id, name, full_name, tagline, description, price, tags, accent_color, badge, num, stats`

func (s *SQLStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY num ASC, id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = `+s.dialect.arg(1), id)

		var err error
		p, err = scanProduct(row)
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

// Seed replaces the table contents with products. The service never calls
// it; catalogctl does, out of band.
func (s *SQLStore) Seed(ctx context.Context, products []Product) error {
	if err := Validate(products); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			full_name    TEXT NOT NULL DEFAULT '',
			tagline      TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			price        TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '[]',
			accent_color TEXT NOT NULL DEFAULT '',
			badge        TEXT NOT NULL DEFAULT '',
			num          TEXT NOT NULL DEFAULT '',
			stats        TEXT NOT NULL DEFAULT '{}'
		)
	`); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	args := make([]string, 11)
	for i := range args {
		args[i] = s.dialect.arg(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (`+strings.Join(args, ", ")+`)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		tags, err := json.Marshal(nonNilTags(p.Tags))
		if err != nil {
			return err
		}
		stats, err := json.Marshal(p.Stats)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.FullName, p.Tagline, p.Description, p.Price,
			string(tags), p.AccentColor, p.Badge, p.Num, string(stats),
		); err != nil {
			return fmt.Errorf("insert %q: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p     Product
		tags  string
		stats string
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.FullName, &p.Tagline, &p.Description, &p.Price,
		&tags, &p.AccentColor, &p.Badge, &p.Num, &stats,
	); err != nil {
		return Product{}, err
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return Product{}, fmt.Errorf("product %q tags: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(stats), &p.Stats); err != nil {
		return Product{}, fmt.Errorf("product %q stats: %w", p.ID, err)
	}
	return p, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
