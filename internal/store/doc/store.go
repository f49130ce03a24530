// Package doc wraps the Postgres-backed document store: the three JSONB
// collections the gateway persists to (meme metadata "mm", map documents
// "map1", and the credit audit log "cl"). Each collection is a single table
// with a handful of indexed scalar columns pulled out of the document for
// fast lookup (id, uid, eol, ns) alongside the full document as JSONB.
package doc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxov/voxov/internal/voerr"
)

// Store is a thin wrapper over the shared connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Collection names, matching the persistent-state-layout table.
const (
	MemeMeta  = "mm"
	Map1      = "map1"
	CreditLog = "cl"
)

// Row is one document as stored: its id, owning uid, optional end-of-life
// timestamp, namespace (for map1's reserved _chan routing), and the full
// JSONB body.
type Row struct {
	ID        string
	Uid       string
	Namespace string
	Eol       *time.Time
	Body      json.RawMessage
}

// Insert stores a new row in the given collection.
func (s *Store) Insert(ctx context.Context, collection string, row Row) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, uid, ns, eol, body) VALUES ($1, $2, $3, $4, $5)`,
		collection,
	)
	if _, err := s.pool.Exec(ctx, query, row.ID, row.Uid, row.Namespace, row.Eol, row.Body); err != nil {
		return voerr.WrapIO(fmt.Errorf("inserting into %s: %w", collection, err))
	}
	return nil
}

// Upsert stores row, replacing any existing row with the same id.
func (s *Store) Upsert(ctx context.Context, collection string, row Row) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, uid, ns, eol, body) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET uid = $2, ns = $3, eol = $4, body = $5`,
		collection,
	)
	if _, err := s.pool.Exec(ctx, query, row.ID, row.Uid, row.Namespace, row.Eol, row.Body); err != nil {
		return voerr.WrapIO(fmt.Errorf("upserting into %s: %w", collection, err))
	}
	return nil
}

// FindByID fetches a single row by id. Returns (Row{}, false, nil) if absent.
func (s *Store) FindByID(ctx context.Context, collection, id string) (Row, bool, error) {
	query := fmt.Sprintf(`SELECT id, uid, ns, eol, body FROM %s WHERE id = $1`, collection)
	row := s.pool.QueryRow(ctx, query, id)
	var r Row
	if err := row.Scan(&r.ID, &r.Uid, &r.Namespace, &r.Eol, &r.Body); err != nil {
		if err == pgx.ErrNoRows {
			return Row{}, false, nil
		}
		return Row{}, false, voerr.WrapIO(fmt.Errorf("fetching from %s: %w", collection, err))
	}
	return r, true, nil
}

// DeleteByID removes a row by id, returning whether a row was deleted.
func (s *Store) DeleteByID(ctx context.Context, collection, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, collection)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, voerr.WrapIO(fmt.Errorf("deleting from %s: %w", collection, err))
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByIDAndUid removes a row only if it is owned by uid, used by
// operations that must not let a caller delete someone else's document.
func (s *Store) DeleteByIDAndUid(ctx context.Context, collection, id, uid string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND uid = $2`, collection)
	tag, err := s.pool.Exec(ctx, query, id, uid)
	if err != nil {
		return false, voerr.WrapIO(fmt.Errorf("deleting from %s: %w", collection, err))
	}
	return tag.RowsAffected() > 0, nil
}

// Query runs a caller-built WHERE clause (see Filter) against collection,
// ordered and limited as specified, returning matching rows.
func (s *Store) Query(ctx context.Context, collection string, f Filter) ([]Row, error) {
	where, args := f.Build()
	query := fmt.Sprintf(`SELECT id, uid, ns, eol, body FROM %s`, collection)
	if where != "" {
		query += " WHERE " + where
	}
	if f.OrderBy != "" {
		query += " ORDER BY " + f.OrderBy
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, voerr.WrapIO(fmt.Errorf("querying %s: %w", collection, err))
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Uid, &r.Namespace, &r.Eol, &r.Body); err != nil {
			return nil, voerr.WrapIO(fmt.Errorf("scanning %s row: %w", collection, err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, voerr.WrapIO(fmt.Errorf("iterating %s rows: %w", collection, err))
	}
	return out, nil
}

// ExpiredBefore returns up to limit rows whose eol is before cutoff, sorted
// oldest-first, for the ripper's sweep passes.
func (s *Store) ExpiredBefore(ctx context.Context, collection string, cutoff time.Time, limit int) ([]Row, error) {
	query := fmt.Sprintf(
		`SELECT id, uid, ns, eol, body FROM %s WHERE eol IS NOT NULL AND eol < $1 ORDER BY eol ASC LIMIT %d`,
		collection, limit,
	)
	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, voerr.WrapIO(fmt.Errorf("sweeping %s: %w", collection, err))
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Uid, &r.Namespace, &r.Eol, &r.Body); err != nil {
			return nil, voerr.WrapIO(fmt.Errorf("scanning %s row: %w", collection, err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, voerr.WrapIO(fmt.Errorf("iterating %s rows: %w", collection, err))
	}
	return out, nil
}

// OlderThan returns up to limit rows whose JSONB body field (a Unix
// timestamp) is before cutoff, sorted oldest-first -- the credit log's
// retention sweep, which has no indexed eol column of its own.
func (s *Store) OlderThan(ctx context.Context, collection, field string, cutoff int64, limit int) ([]Row, error) {
	query := fmt.Sprintf(
		`SELECT id, uid, ns, eol, body FROM %s WHERE (body->>%s)::bigint < $1 ORDER BY (body->>%s)::bigint ASC LIMIT %d`,
		collection, quoteIdent(field), quoteIdent(field), limit,
	)
	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, voerr.WrapIO(fmt.Errorf("sweeping %s: %w", collection, err))
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Uid, &r.Namespace, &r.Eol, &r.Body); err != nil {
			return nil, voerr.WrapIO(fmt.Errorf("scanning %s row: %w", collection, err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, voerr.WrapIO(fmt.Errorf("iterating %s rows: %w", collection, err))
	}
	return out, nil
}
