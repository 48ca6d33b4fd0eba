package entity

import "time"

type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusReviewed TradeStatus = "reviewed"
)

const DefaultDisplayUnit = "pips"

// Trade is a journaled position owned by exactly one student.
// Chart fields hold large payloads (usually data URLs) and are purged by the retention job.
type Trade struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Asset          string      `json:"asset"`
	Direction      Direction   `json:"direction"`
	Entry          float64     `json:"entry"`
	SL             float64     `json:"sl"`
	TP             *float64    `json:"tp"`
	Exit           *float64    `json:"exit"`
	Status         TradeStatus `json:"status"`
	Strategy       *string     `json:"strategy"`
	Emotion        *string     `json:"emotion"`
	PlannedR       *float64    `json:"planned_r"`
	ActualR        *float64    `json:"actual_r"`
	DisplayUnit    string      `json:"display_unit"`
	ChartBeforeURL *string     `json:"chart_before_url"`
	ChartAfterURL  *string     `json:"chart_after_url"`
	ReviewedBy     *string     `json:"reviewed_by"`
	Feedback       *string     `json:"feedback"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (t *Trade) HasCharts() bool {
	return t.ChartBeforeURL != nil || t.ChartAfterURL != nil
}

// ChartBytes is the size of both chart payloads.
func (t *Trade) ChartBytes() int64 {
	var n int64
	if t.ChartBeforeURL != nil {
		n += int64(len(*t.ChartBeforeURL))
	}
	if t.ChartAfterURL != nil {
		n += int64(len(*t.ChartAfterURL))
	}
	return n
}

// TradeFilter narrows ListTrades. OwnerID is forced for students by the service layer.
type TradeFilter struct {
	OwnerID string
	Status  TradeStatus
	Limit   int
	Offset  int
}

func (f TradeFilter) Match(t *Trade) bool {
	if f.OwnerID != "" && t.UserID != f.OwnerID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// StorageStats is the admin view of what the store holds.
type StorageStats struct {
	Driver            string         `json:"driver"`
	Users             int            `json:"users"`
	UsersByStatus     map[string]int `json:"users_by_status"`
	UsersByRole       map[string]int `json:"users_by_role"`
	Trades            int            `json:"trades"`
	TradesPending     int            `json:"trades_pending"`
	TradesReviewed    int            `json:"trades_reviewed"`
	TradesWithCharts  int            `json:"trades_with_charts"`
	ChartPayloadBytes int64          `json:"chart_payload_bytes"`
	OldestChartAt     *time.Time     `json:"oldest_chart_at"`
	RetentionDays     int            `json:"retention_days"`
	ChartsSupported   bool           `json:"charts_supported"`
}
