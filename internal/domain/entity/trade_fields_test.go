package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTradePatchAliases(t *testing.T) {
	raw := map[string]any{
		"symbol":         "XAUUSD",
		"side":           "SHORT",
		"entryPrice":     "2350.5",
		"stop_loss":      2360,
		"exitPrice":      json.Number("2340.1"),
		"plannedRR":      2.5,
		"displayUnit":    "points",
		"chartBeforeUrl": "data:image/png;base64,AA",
		"coachFeedback":  "nice",
		"docId":          "legacy",
		"userId":         "someone",
		"createdAt":      "2020-01-01",
		"unknownField":   true,
	}
	p, err := NormalizeTradePatch(raw)
	require.NoError(t, err)
	assert.Equal(t, TradePatch{
		"asset":            "XAUUSD",
		"direction":        "short",
		"entry":            2350.5,
		"sl":               2360.0,
		"exit":             2340.1,
		"planned_r":        2.5,
		"display_unit":     "points",
		"chart_before_url": "data:image/png;base64,AA",
		"feedback":         "nice",
	}, p)
}

func TestNormalizeTradePatchCanonicalNameWins(t *testing.T) {
	raw := map[string]any{
		"exit":        1.5,
		"exitPrice":   nil,
		"exit_price":  2.5,
		"stopLoss":    1.2,
		"stop_loss":   1.3,
		"plannedR":    2.0,
		"plannedRR":   3.0,
		"chartBefore": "data:b",
	}
	for i := 0; i < 100; i++ {
		p, err := NormalizeTradePatch(raw)
		require.NoError(t, err)
		assert.Equal(t, 1.5, p["exit"])
		assert.Equal(t, 1.2, p["sl"], "first alias in table order")
		assert.Equal(t, 2.0, p["planned_r"])
		assert.Equal(t, "data:b", p["chart_before_url"])
	}
}

func TestNormalizeTradePatchIgnoresShadowedAliasErrors(t *testing.T) {
	p, err := NormalizeTradePatch(map[string]any{"entry": 1.1, "entryPrice": "abc"})
	require.NoError(t, err)
	assert.Equal(t, 1.1, p["entry"])
}

func TestNormalizeTradePatchErrors(t *testing.T) {
	cases := map[string]map[string]any{
		"entry":     {"entry": "abc"},
		"sl":        {"sl": nil},
		"direction": {"direction": "up"},
		"status":    {"status": "closed"},
		"asset":     {"asset": 42},
	}
	for field, raw := range cases {
		_, err := NormalizeTradePatch(raw)
		var fe *FieldError
		require.True(t, errors.As(err, &fe), field)
		assert.Equal(t, field, fe.Field)
	}
}

func TestNormalizeTradePatchNullables(t *testing.T) {
	p, err := NormalizeTradePatch(map[string]any{"tp": nil, "exit": "", "strategy": nil})
	require.NoError(t, err)
	assert.True(t, p.Has("tp"))
	assert.Nil(t, p["tp"])
	assert.Nil(t, p["exit"])
	assert.Nil(t, p["strategy"])
}

func TestTradePatchApplyAndValue(t *testing.T) {
	tp := 1.2
	tr := &Trade{Asset: "EURUSD", TP: &tp}
	p := TradePatch{"asset": "GBPUSD", "tp": nil, "exit": 1.25, "status": "reviewed", "reviewed_by": "coach"}
	p.Apply(tr)

	assert.Equal(t, "GBPUSD", tr.Asset)
	assert.Nil(t, tr.TP)
	require.NotNil(t, tr.Exit)
	assert.Equal(t, 1.25, *tr.Exit)
	assert.Equal(t, TradeStatusReviewed, tr.Status)
	assert.Equal(t, "GBPUSD", TradeValue(tr, "asset"))
	assert.Equal(t, "reviewed", TradeValue(tr, "status"))

	assert.Equal(t, []string{"asset", "tp", "exit", "status", "reviewed_by"}, p.Names())
	stripped := p.Without(ReviewTradeFields...)
	assert.Equal(t, []string{"asset", "tp", "exit"}, stripped.Names())
	assert.True(t, p.Has("status"), "Without must not mutate the receiver")
}

func TestTradeFieldTable(t *testing.T) {
	f, ok := LookupTradeField("plannedR")
	require.True(t, ok)
	assert.Equal(t, "planned_r", f.Column)

	f, ok = LookupTradeField("exit")
	require.True(t, ok)
	assert.Equal(t, `"exit"`, f.Column)

	optional := 0
	for _, f := range TradeFields {
		if f.Optional {
			optional++
			assert.True(t, f.Nullable, f.Name)
		}
	}
	assert.Equal(t, 4, optional)
	assert.True(t, IsImmutableTradeKey("updatedAt"))
	assert.False(t, IsImmutableTradeKey("asset"))
}

func TestTradeCharts(t *testing.T) {
	before, after := "abcd", "ef"
	tr := &Trade{}
	assert.False(t, tr.HasCharts())
	tr.ChartBeforeURL, tr.ChartAfterURL = &before, &after
	assert.True(t, tr.HasCharts())
	assert.Equal(t, int64(6), tr.ChartBytes())
}
