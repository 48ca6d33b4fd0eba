package postgres

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
)

const tradeColumnsQuery = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = 'trades'
`

// columnSet is a read-only snapshot of the trades columns present in the live schema.
type columnSet map[string]bool

func columnName(f entity.TradeField) string {
	return strings.Trim(f.Column, `"`)
}

// supports reports whether f can be written; required fields are always assumed present.
func (c columnSet) supports(f entity.TradeField) bool {
	return !f.Optional || c[columnName(f)]
}

func (c columnSet) optionalFields() []entity.TradeField {
	var out []entity.TradeField
	for _, f := range entity.TradeFields {
		if f.Optional && c[columnName(f)] {
			out = append(out, f)
		}
	}
	return out
}

func (c columnSet) hasCharts() bool {
	return c["chart_before_url"] && c["chart_after_url"]
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// schemaCache probes information_schema once and serves snapshots afterwards.
type schemaCache struct {
	mu      sync.RWMutex
	columns columnSet
}

func newSchemaCache() *schemaCache { return &schemaCache{} }

func (c *schemaCache) tradeColumns(ctx context.Context, q querier) (columnSet, error) {
	c.mu.RLock()
	cols := c.columns
	c.mu.RUnlock()
	if cols != nil {
		return cols, nil
	}

	rows, err := q.Query(ctx, tradeColumnsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	loaded := columnSet{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		loaded[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.columns == nil {
		c.columns = loaded
	}
	return c.columns, nil
}

// forget drops column from the cached snapshot. An empty name drops every optional column.
func (c *schemaCache) forget(column string) columnSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := columnSet{}
	for k, v := range c.columns {
		next[k] = v
	}
	if column == "" {
		for _, f := range entity.TradeFields {
			if f.Optional {
				delete(next, columnName(f))
			}
		}
	} else {
		delete(next, column)
	}
	c.columns = next
	return next
}
