package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"github.com/ScrpTrx-Go/GoAnchorScan/internal/config"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/service/signature"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"modernc.org/sqlite"
)

const sqliteSignatureFunc = "block_signature"

type Database struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
	Log  pkg.Logger

	d     dialect
	posts string
	sig   signature.Signature
}

var _ contracts.SessionProvider = (*Database)(nil)

// Open connects using the driver named in cfg and checks that the posts
// table is readable. Any failure is a *model.StoreUnavailableError.
func Open(ctx context.Context, log pkg.Logger, cfg config.DatabaseConfig, sig signature.Signature) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresPool(ctx, log, cfg, sig)
	case config.DriverSQLite:
		return NewSQLite(ctx, log, cfg, sig)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func NewPostgresPool(ctx context.Context, log pkg.Logger, cfg config.DatabaseConfig, sig signature.Signature) (*Database, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, &model.StoreUnavailableError{Op: "parse dsn", Err: err}
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, &model.StoreUnavailableError{Op: "connect", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &model.StoreUnavailableError{Op: "ping", Err: err}
	}

	d := &Database{
		Pool:  pool,
		Log:   log,
		d:     postgresDialect,
		posts: ident(cfg.TablePrefix + "posts"),
		sig:   sig,
	}
	if err := d.checkPosts(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("Connected to postgres", "max_conns", poolCfg.MaxConns, "table", d.posts)
	return d, nil
}

var registerSQLiteFunc sync.Once
var sqliteMatchers sync.Map

func NewSQLite(ctx context.Context, log pkg.Logger, cfg config.DatabaseConfig, sig signature.Signature) (*Database, error) {
	var regErr error
	registerSQLiteFunc.Do(func() {
		regErr = sqlite.RegisterDeterministicScalarFunction(sqliteSignatureFunc, 2, blockSignature)
	})
	if regErr != nil {
		return nil, fmt.Errorf("register %s: %w", sqliteSignatureFunc, regErr)
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, &model.StoreUnavailableError{Op: "open", Err: err}
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &model.StoreUnavailableError{Op: "ping", Err: err}
	}

	d := &Database{
		DB:    db,
		Log:   log,
		d:     sqliteDialect,
		posts: ident(cfg.TablePrefix + "posts"),
		sig:   sig,
	}
	if err := d.checkPosts(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Opened sqlite database", "dsn", cfg.DSN, "table", d.posts)
	return d, nil
}

// blockSignature backs block_signature(content, block_name) in SQLite.
func blockSignature(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	var content string
	switch v := args[0].(type) {
	case nil:
		return int64(0), nil
	case string:
		content = v
	case []byte:
		content = string(v)
	default:
		return int64(0), nil
	}

	name, ok := args[1].(string)
	if !ok {
		return nil, errors.New("block_signature: block name must be text")
	}

	m, ok := sqliteMatchers.Load(name)
	if !ok {
		m, _ = sqliteMatchers.LoadOrStore(name, signature.New(name).Matcher())
	}
	if m.(*signature.Matcher).Match(content) {
		return int64(1), nil
	}
	return int64(0), nil
}

func (d *Database) checkPosts(ctx context.Context) error {
	s, err := d.Session(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sess := s.(*Session)
	if err := sess.conn.exec(ctx, "SELECT "+colID+" FROM "+d.posts+" LIMIT 0"); err != nil {
		if code := sqlState(err); code != "" {
			d.Log.Error("Posts table check failed", "table", d.posts, "sqlstate", code)
		}
		return &model.StoreUnavailableError{Op: "check " + d.posts, Err: err}
	}
	return nil
}

// Session pins a connection. Callers must Close it.
func (d *Database) Session(ctx context.Context) (contracts.StoreSession, error) {
	var c conn
	switch {
	case d.Pool != nil:
		pc, err := d.Pool.Acquire(ctx)
		if err != nil {
			return nil, &model.StoreUnavailableError{Op: "acquire", Err: err}
		}
		c = &pgConn{c: pc}
	case d.DB != nil:
		sc, err := d.DB.Conn(ctx)
		if err != nil {
			return nil, &model.StoreUnavailableError{Op: "acquire", Err: err}
		}
		c = &sqlConn{c: sc}
	default:
		return nil, errors.New("database is not open")
	}

	return &Session{
		conn:  c,
		d:     d.d,
		posts: d.posts,
		sig:   d.sig,
		log:   d.Log,
		live:  make(map[string]struct{}),
	}, nil
}

func (d *Database) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Log.Warn("Failed to close sqlite database", "err", err)
		}
	}
}

// sqlState returns the Postgres error code carried by err, or "".
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
