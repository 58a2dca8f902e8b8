package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// conn is a single server session. Temporary relations are only visible
// through the conn that created them.
type conn interface {
	exec(ctx context.Context, sql string, args ...any) error
	queryIDs(ctx context.Context, sql string, args ...any) ([]int64, error)
	queryInt(ctx context.Context, sql string, args ...any) (int, error)
	// release returns the session to its pool, or closes it when discard is
	// set so the server tears down everything the session owned.
	release(ctx context.Context, discard bool) error
}

type pgConn struct {
	c *pgxpool.Conn
}

func (p *pgConn) exec(ctx context.Context, sql string, args ...any) error {
	_, err := p.c.Exec(ctx, sql, args...)
	return err
}

func (p *pgConn) queryIDs(ctx context.Context, sql string, args ...any) ([]int64, error) {
	rows, err := p.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (p *pgConn) queryInt(ctx context.Context, sql string, args ...any) (int, error) {
	var n int64
	if err := p.c.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (p *pgConn) release(ctx context.Context, discard bool) error {
	if !discard {
		p.c.Release()
		return nil
	}
	return p.c.Hijack().Close(ctx)
}

type sqlConn struct {
	c *sql.Conn
}

func (s *sqlConn) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.c.ExecContext(ctx, query, args...)
	return err
}

func (s *sqlConn) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqlConn) queryInt(ctx context.Context, query string, args ...any) (int, error) {
	var n int64
	if err := s.c.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *sqlConn) release(_ context.Context, discard bool) error {
	if discard {
		// ErrBadConn makes database/sql close the driver connection instead
		// of pooling it; the *sql.Conn is done afterwards.
		err := s.c.Raw(func(any) error { return driver.ErrBadConn })
		if errors.Is(err, driver.ErrBadConn) {
			return nil
		}
	}
	return s.c.Close()
}
