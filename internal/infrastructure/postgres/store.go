package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/domain/repository"
)

const (
	sqlstateUndefinedColumn = "42703"
	sqlstateUniqueViolation = "23505"
)

// Store is the relational record store. Every exported operation holds exactly one
// pooled connection for its whole unit of work, retries included.
type Store struct {
	pool          *pgxpool.Pool
	logger        *logrus.Logger
	schema        *schemaCache
	retentionDays int
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, logger *logrus.Logger, retentionDays int) *Store {
	return &Store{
		pool:          pool,
		logger:        logger,
		schema:        newSchemaCache(),
		retentionDays: retentionDays,
	}
}

func (s *Store) Driver() string { return "postgres" }

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
		}
		return nil
	})
}

// withConn acquires one connection, runs fn and releases the connection on every exit
// path, panics included.
func (s *Store) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %v", repository.ErrStoreUnavailable, err)
	}
	defer conn.Release()
	return fn(conn)
}

// withColumnFallback runs op with the known trades columns. If the live schema still
// rejects a column, that column is forgotten and op runs exactly once more.
func (s *Store) withColumnFallback(ctx context.Context, conn querier, op func(cols columnSet) error) error {
	cols, err := s.schema.tradeColumns(ctx, conn)
	if err != nil {
		return err
	}
	err = op(cols)
	col, ok := undefinedColumn(err)
	if !ok {
		return err
	}
	if s.logger != nil {
		s.logger.WithError(err).WithField("column", col).Warn("trades column missing from schema; retrying without it")
	}
	return op(s.schema.forget(col))
}

// undefinedColumn extracts the column name from a 42703 error. An empty name with ok=true
// means the column could not be identified.
func undefinedColumn(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) || pgErr.Code != sqlstateUndefinedColumn {
		return "", false
	}
	msg := pgErr.Message
	start := strings.Index(msg, `"`)
	if start < 0 {
		return "", true
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return "", true
	}
	name := msg[start+1 : start+1+end]
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name, true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}

// whereBuilder accumulates AND-combined conditions with positional args.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET when limit is positive.
func (w *whereBuilder) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	if offset < 0 {
		offset = 0
	}
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
