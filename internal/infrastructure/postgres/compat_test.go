package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
)

func TestUndefinedColumnParsesQuotedName(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "42703", Message: `column "chart_before_url" of relation "trades" does not exist`})
	col, ok := undefinedColumn(err)
	require.True(t, ok)
	assert.Equal(t, "chart_before_url", col)

	col, ok = undefinedColumn(&pgconn.PgError{Code: "42703", Message: `column "t.feedback" does not exist`})
	require.True(t, ok)
	assert.Equal(t, "feedback", col)
}

func TestUndefinedColumnWithoutName(t *testing.T) {
	col, ok := undefinedColumn(&pgconn.PgError{Code: "42703", Message: "column does not exist"})
	assert.True(t, ok)
	assert.Empty(t, col)
}

func TestUndefinedColumnIgnoresOtherErrors(t *testing.T) {
	_, ok := undefinedColumn(nil)
	assert.False(t, ok)
	_, ok = undefinedColumn(errors.New("boom"))
	assert.False(t, ok)
	_, ok = undefinedColumn(&pgconn.PgError{Code: "23505"})
	assert.False(t, ok)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "42703"}))
}

func TestSchemaCacheForget(t *testing.T) {
	c := newSchemaCache()
	c.columns = columnSet{"id": true, "chart_before_url": true, "chart_after_url": true, "reviewed_by": true, "feedback": true}
	before := c.columns

	next := c.forget("feedback")
	assert.False(t, next["feedback"])
	assert.True(t, next["reviewed_by"])
	assert.True(t, before["feedback"], "earlier snapshots stay untouched")

	next = c.forget("")
	assert.True(t, next["id"])
	for _, f := range entity.TradeFields {
		if f.Optional {
			assert.False(t, next[columnName(f)], f.Name)
		}
	}
	assert.False(t, next.hasCharts())
}

func TestColumnSetSupports(t *testing.T) {
	cols := columnSet{"asset": true}
	exit, _ := entity.LookupTradeField("exit")
	chart, _ := entity.LookupTradeField("chart_after_url")
	assert.True(t, cols.supports(exit))
	assert.False(t, cols.supports(chart))
	assert.Equal(t, "exit", columnName(exit))
}

func TestTradeProjectionIncludesOnlyPresentOptionalColumns(t *testing.T) {
	proj := newTradeProjection(columnSet{"reviewed_by": true, "feedback": true})
	sql := proj.sql()
	assert.Contains(t, sql, "reviewed_by")
	assert.Contains(t, sql, "feedback")
	assert.NotContains(t, sql, "chart_before_url")
	assert.Contains(t, sql, "COALESCE(display_unit, 'pips')")
}

func TestWhereBuilderNumbersPlaceholders(t *testing.T) {
	w := tradeWhere(entity.TradeFilter{OwnerID: "u1", Status: entity.TradeStatusPending})
	assert.Equal(t, " WHERE user_id = $1 AND status = $2", w.sql())
	assert.Equal(t, " LIMIT $3 OFFSET $4", w.page(50, 50))
	assert.Equal(t, []any{"u1", "pending", 50, 50}, w.args)

	empty := userWhere(entity.UserFilter{})
	assert.Empty(t, empty.sql())
	assert.Empty(t, empty.page(0, 10))
}
