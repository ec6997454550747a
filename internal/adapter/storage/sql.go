package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
)

var _ port.CatalogStore = (*SQLStore)(nil)

type sqldb interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}

// An SQLStore keeps the replica in postgres behind the same
// CatalogStore contract as the file backend. Durability is inherent,
// so Load and Save are no-ops; serialization of concurrent mutations
// is delegated to transactions.
type SQLStore struct {
	db sqldb
}

func NewSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	const op = "NewSQLStore"

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	connStr := stdlib.RegisterConnConfig(connConfig)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &SQLStore{db}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	slog.Info("database is available", "op", op)
	return s, nil
}

const upsertQuery = `
	INSERT INTO products (product_id, sku, name, price, category_id, tags, variants, raw)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (product_id) DO UPDATE SET
		sku = EXCLUDED.sku,
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		category_id = EXCLUDED.category_id,
		tags = EXCLUDED.tags,
		variants = EXCLUDED.variants,
		raw = EXCLUDED.raw;
`

const selectColumns = `
	SELECT product_id, sku, name, price, category_id, tags, variants, raw
	FROM products
`

func (s *SQLStore) Get(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "SQLStore.Get"

	row := s.db.QueryRowContext(ctx, selectColumns+`WHERE product_id = $1;`, id)
	p, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w",
				op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *SQLStore) Upsert(ctx context.Context, p domain.Product) error {
	const op = "SQLStore.Upsert"

	args, err := upsertArgs(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SQLStore) UpsertBatch(
	ctx context.Context, ps []domain.Product,
) error {
	const op = "SQLStore.UpsertBatch"

	return s.inTx(ctx, op, func(tx *sql.Tx) error {
		return upsertAll(ctx, tx, ps)
	})
}

func (s *SQLStore) Replace(ctx context.Context, ps []domain.Product) error {
	const op = "SQLStore.Replace"

	return s.inTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products;`); err != nil {
			return err
		}
		return upsertAll(ctx, tx, ps)
	})
}

func (s *SQLStore) List(ctx context.Context) ([]domain.Product, error) {
	const op = "SQLStore.List"

	rows, err := s.db.QueryContext(ctx, selectColumns+`ORDER BY seq ASC;`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *SQLStore) Load(ctx context.Context) error {
	return ctx.Err()
}

func (s *SQLStore) Save(ctx context.Context) error {
	return ctx.Err()
}

func (s *SQLStore) Close() {
	const op = "SQLStore.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")
	if err := s.db.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}

func (s *SQLStore) inTx(
	ctx context.Context, op string, fn func(tx *sql.Tx) error,
) (txErr error) {
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if txErr == nil {
			if err := tx.Commit(); err != nil {
				txErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}
		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func upsertAll(ctx context.Context, tx *sql.Tx, ps []domain.Product) error {
	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, p := range ps {
		args, err := upsertArgs(p)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to exec: %w", err)
		}
	}
	return nil
}

func upsertArgs(p domain.Product) ([]any, error) {
	tagsB, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, err
	}
	variantsB, err := json.Marshal(p.Variants)
	if err != nil {
		return nil, err
	}
	raw := []byte(p.Raw)
	if len(raw) == 0 {
		raw = []byte("null")
	}
	return []any{
		p.ID, p.SKU, p.Name, p.Price, p.CategoryID,
		string(tagsB), string(variantsB), string(raw),
	}, nil
}

func scanProduct(scan func(dest ...any) error) (domain.Product, error) {
	var (
		p         domain.Product
		tagsS     string
		variantsS string
		rawS      string
	)
	err := scan(
		&p.ID, &p.SKU, &p.Name, &p.Price, &p.CategoryID,
		&tagsS, &variantsS, &rawS,
	)
	if err != nil {
		return domain.Product{}, err
	}

	if err := json.Unmarshal([]byte(tagsS), &p.Tags); err != nil {
		return domain.Product{}, err
	}
	if err := json.Unmarshal([]byte(variantsS), &p.Variants); err != nil {
		return domain.Product{}, err
	}
	if rawS != "" && rawS != "null" {
		p.Raw = json.RawMessage(rawS)
	}
	return p, nil
}
