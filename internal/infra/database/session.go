package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/signature"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
)

const closeTimeout = 5 * time.Second

// Session pins one connection for the lifetime of a scan.
type Session struct {
	conn  conn
	d     dialect
	posts string
	sig   signature.Signature
	log   pkg.Logger
	// live staging relations, dropped or discarded with the connection on Close
	live map[string]struct{}
}

var _ contracts.StoreSession = (*Session)(nil)

func (s *Session) ProbeStaging(ctx context.Context, name string) error {
	probe := ident(name)
	if err := s.conn.exec(ctx, "CREATE TEMPORARY TABLE IF NOT EXISTS "+probe+" (id INT)"); err != nil {
		s.log.Debug("Temporary table probe failed", "driver", s.d.name, "sqlstate", sqlState(err), "err", err)
		return fmt.Errorf("%w: %v", model.ErrStagingUnsupported, err)
	}
	if err := s.conn.exec(ctx, "DROP TABLE IF EXISTS "+probe); err != nil {
		s.live[name] = struct{}{}
		return fmt.Errorf("%w: drop probe: %v", model.ErrStagingUnsupported, err)
	}
	return nil
}

func (s *Session) CreateStaging(ctx context.Context, name string) error {
	sql := "CREATE TEMPORARY TABLE " + ident(name) + " (" + colStaged + " BIGINT NOT NULL PRIMARY KEY)"
	if err := s.conn.exec(ctx, sql); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	s.live[name] = struct{}{}
	return nil
}

func (s *Session) StageMatches(ctx context.Context, name string, window model.DateWindow) error {
	q := newQuery(s.d).write("INSERT INTO ", ident(name), " (", colStaged, ") ")
	q.matchSelect(s.posts, window, s.sig)
	q.write(" ON CONFLICT DO NOTHING")

	if err := s.conn.exec(ctx, q.String(), q.args...); err != nil {
		return fmt.Errorf("stage matching posts: %w", err)
	}
	return nil
}

func (s *Session) CountStaged(ctx context.Context, name string) (int, error) {
	n, err := s.conn.queryInt(ctx, "SELECT COUNT(*) FROM "+ident(name))
	if err != nil {
		return 0, fmt.Errorf("count staged posts: %w", err)
	}
	return n, nil
}

func (s *Session) FetchStaged(ctx context.Context, name string, offset, limit int) ([]int64, error) {
	q := newQuery(s.d).write("SELECT ", colStaged, " FROM ", ident(name), " ORDER BY ", colStaged)
	q.window(limit, offset)

	ids, err := s.conn.queryIDs(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetch staged posts: %w", err)
	}
	return ids, nil
}

func (s *Session) DropStaging(ctx context.Context, name string) error {
	if err := s.conn.exec(ctx, "DROP TABLE IF EXISTS "+ident(name)); err != nil {
		return fmt.Errorf("drop staging table: %w", err)
	}
	delete(s.live, name)
	return nil
}

func (s *Session) FetchMatches(ctx context.Context, window model.DateWindow, offset, limit int) ([]int64, error) {
	q := newQuery(s.d).matchSelect(s.posts, window, s.sig)
	q.write(" ORDER BY ", colID)
	q.window(limit, offset)

	ids, err := s.conn.queryIDs(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetch matching posts: %w", err)
	}
	return ids, nil
}

// Close hands the connection back. If a staging relation could not be
// dropped the connection is closed instead, which destroys it server side.
func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	discard := len(s.live) > 0
	if discard {
		s.log.Warn("Discarding connection with live staging tables", "count", len(s.live))
	}
	return s.conn.release(ctx, discard)
}
