// Package object implements the blob store backing meme bytes, on top of
// Postgres's Large Object API (the same connection pool that backs the
// document store, reused rather than adding a dedicated object-storage
// dependency).
package object

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

// Store creates, streams and deletes large objects.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FrameFunc is called once per chunk read from the source during Put,
// before the chunk is written to the object. Returning an error aborts the
// upload; the meme upload path uses this hook to charge per-frame space
// cost and enforce the deadline while bytes are still arriving.
type FrameFunc func(frame []byte) error

const defaultFrameSize = 64 * 1024

// Put streams src into a new large object, hashing it incrementally with
// BLAKE3 and invoking onFrame for every chunk read. It returns the
// Postgres large object OID (to be stored in the meme's metadata row) and
// the content hash.
func (s *Store) Put(ctx context.Context, src io.Reader, onFrame FrameFunc) (uint32, ids.Hash, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("beginning object tx: %w", err))
	}
	defer tx.Rollback(ctx)

	los := tx.LargeObjects()
	oid, err := los.Create(ctx, 0)
	if err != nil {
		return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("creating large object: %w", err))
	}

	obj, err := los.Open(ctx, oid, pgx.LargeObjectModeWrite)
	if err != nil {
		return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("opening large object for write: %w", err))
	}

	hasher := ids.NewHasher()
	buf := make([]byte, defaultFrameSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			frame := buf[:n]
			if onFrame != nil {
				if err := onFrame(frame); err != nil {
					return 0, ids.Hash{}, err
				}
			}
			if _, err := hasher.Write(frame); err != nil {
				return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("hashing frame: %w", err))
			}
			if _, err := obj.Write(frame); err != nil {
				return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("writing frame: %w", err))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("reading source: %w", readErr))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, ids.Hash{}, voerr.WrapIO(fmt.Errorf("committing object tx: %w", err))
	}

	return oid, hasher.Sum(), nil
}

// Get streams the large object identified by oid to dst, invoking onFrame
// per chunk for traffic metering on the read side.
func (s *Store) Get(ctx context.Context, oid uint32, dst io.Writer, onFrame FrameFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return voerr.WrapIO(fmt.Errorf("beginning object tx: %w", err))
	}
	defer tx.Rollback(ctx)

	los := tx.LargeObjects()
	obj, err := los.Open(ctx, oid, pgx.LargeObjectModeRead)
	if err != nil {
		return voerr.Wrap(voerr.MemeGet, fmt.Errorf("opening large object %d: %w", oid, err))
	}

	buf := make([]byte, defaultFrameSize)
	for {
		n, readErr := obj.Read(buf)
		if n > 0 {
			frame := buf[:n]
			if onFrame != nil {
				if err := onFrame(frame); err != nil {
					return err
				}
			}
			if _, err := dst.Write(frame); err != nil {
				return voerr.WrapIO(fmt.Errorf("writing destination: %w", err))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return voerr.WrapIO(fmt.Errorf("reading large object %d: %w", oid, readErr))
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the large object identified by oid. Deleting an
// already-absent object is not an error, matching the ripper's tolerant
// sweep semantics.
func (s *Store) Delete(ctx context.Context, oid uint32) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return voerr.WrapIO(fmt.Errorf("beginning object tx: %w", err))
	}
	defer tx.Rollback(ctx)

	los := tx.LargeObjects()
	if err := los.Unlink(ctx, oid); err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return voerr.WrapIO(fmt.Errorf("unlinking large object %d: %w", oid, err))
	}

	return tx.Commit(ctx)
}

// OidToNumeric adapts a uint32 OID for storage in a JSONB document field.
func OidToNumeric(oid uint32) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(fmt.Sprintf("%d", oid))
	return n
}
