package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
)

// Stats summarizes store contents for the admin storage endpoint.
func (s *Store) Stats(ctx context.Context) (*entity.StorageStats, error) {
	st := &entity.StorageStats{
		Driver:        s.Driver(),
		UsersByStatus: map[string]int{},
		UsersByRole:   map[string]int{},
		RetentionDays: s.retentionDays,
	}
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT role, status, COUNT(*) FROM users GROUP BY role, status`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var role, status string
			var n int
			if err := rows.Scan(&role, &status, &n); err != nil {
				rows.Close()
				return err
			}
			st.Users += n
			st.UsersByRole[role] += n
			st.UsersByStatus[status] += n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if err := conn.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE status = 'pending'),
			       COUNT(*) FILTER (WHERE status = 'reviewed')
			FROM trades`).Scan(&st.Trades, &st.TradesPending, &st.TradesReviewed); err != nil {
			return err
		}

		cols, err := s.schema.tradeColumns(ctx, conn)
		if err != nil {
			return err
		}
		st.ChartsSupported = cols.hasCharts()
		if !st.ChartsSupported {
			return nil
		}
		var oldest *time.Time
		err = conn.QueryRow(ctx, `
			SELECT COUNT(*),
			       COALESCE(SUM(COALESCE(LENGTH(chart_before_url), 0) + COALESCE(LENGTH(chart_after_url), 0)), 0),
			       MIN(created_at)
			FROM trades
			WHERE chart_before_url IS NOT NULL OR chart_after_url IS NOT NULL`).Scan(&st.TradesWithCharts, &st.ChartPayloadBytes, &oldest)
		if err != nil {
			if _, ok := undefinedColumn(err); ok {
				s.schema.forget("")
				st.ChartsSupported = false
				return nil
			}
			return err
		}
		st.OldestChartAt = oldest
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage stats: %w", err)
	}
	return st, nil
}
