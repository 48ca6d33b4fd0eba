package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDirection
	KindTradeStatus
)

// TradeField maps one public trade field to its storage column.
// Optional fields may be missing from older relational schemas.
type TradeField struct {
	Name     string
	Aliases  []string
	Column   string
	Kind     FieldKind
	Nullable bool
	Optional bool
}

// TradeFields is the single source of truth for trade field names, aliases and columns.
var TradeFields = []TradeField{
	{Name: "asset", Aliases: []string{"symbol", "pair"}, Column: "asset", Kind: KindText},
	{Name: "direction", Aliases: []string{"side"}, Column: "direction", Kind: KindDirection},
	{Name: "entry", Aliases: []string{"entryPrice", "entry_price"}, Column: "entry", Kind: KindNumber},
	{Name: "sl", Aliases: []string{"stopLoss", "stop_loss"}, Column: "sl", Kind: KindNumber},
	{Name: "tp", Aliases: []string{"takeProfit", "take_profit"}, Column: "tp", Kind: KindNumber, Nullable: true},
	{Name: "exit", Aliases: []string{"exitPrice", "exit_price"}, Column: `"exit"`, Kind: KindNumber, Nullable: true},
	{Name: "status", Column: "status", Kind: KindTradeStatus},
	{Name: "strategy", Column: "strategy", Kind: KindText, Nullable: true},
	{Name: "emotion", Column: "emotion", Kind: KindText, Nullable: true},
	{Name: "planned_r", Aliases: []string{"plannedR", "plannedRR"}, Column: "planned_r", Kind: KindNumber, Nullable: true},
	{Name: "actual_r", Aliases: []string{"actualR", "actualRR"}, Column: "actual_r", Kind: KindNumber, Nullable: true},
	{Name: "display_unit", Aliases: []string{"displayUnit"}, Column: "display_unit", Kind: KindText},
	{Name: "chart_before_url", Aliases: []string{"chartBeforeUrl", "chartBeforeURL", "chartBefore"}, Column: "chart_before_url", Kind: KindText, Nullable: true, Optional: true},
	{Name: "chart_after_url", Aliases: []string{"chartAfterUrl", "chartAfterURL", "chartAfter"}, Column: "chart_after_url", Kind: KindText, Nullable: true, Optional: true},
	{Name: "reviewed_by", Aliases: []string{"reviewedBy"}, Column: "reviewed_by", Kind: KindText, Nullable: true, Optional: true},
	{Name: "feedback", Aliases: []string{"coachFeedback"}, Column: "feedback", Kind: KindText, Nullable: true, Optional: true},
}

// Fields that can never be written through a patch, including legacy aliases.
var immutableTradeKeys = map[string]struct{}{
	"id": {}, "docId": {}, "doc_id": {}, "_id": {},
	"user_id": {}, "userId": {}, "owner_id": {}, "ownerId": {},
	"created_at": {}, "createdAt": {},
	"updated_at": {}, "updatedAt": {},
}

// Review fields are reserved for coaches and admins.
var ReviewTradeFields = []string{"status", "reviewed_by", "feedback"}

var tradeFieldIndex = func() map[string]TradeField {
	idx := make(map[string]TradeField, len(TradeFields)*3)
	for _, f := range TradeFields {
		for _, n := range append([]string{f.Name}, f.Aliases...) {
			if IsImmutableTradeKey(n) {
				panic("trade field name " + n + " is immutable")
			}
			idx[n] = f
		}
	}
	return idx
}()

// LookupTradeField resolves a public name or alias.
func LookupTradeField(name string) (TradeField, bool) {
	f, ok := tradeFieldIndex[name]
	return f, ok
}

// IsImmutableTradeKey reports whether key names an id, owner or timestamp field.
func IsImmutableTradeKey(key string) bool {
	_, ok := immutableTradeKeys[key]
	return ok
}

// FieldError is a validation failure on a single trade field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// TradePatch maps canonical field names to normalized values:
// string, float64 or nil.
type TradePatch map[string]any

// NormalizeTradePatch translates a raw request body (snake_case or camelCase) into a
// TradePatch. Immutable and unknown keys are dropped. When a field arrives under several
// names, the canonical name wins, then the first alias in table order; the rest are ignored.
func NormalizeTradePatch(raw map[string]any) (TradePatch, error) {
	out := make(TradePatch, len(raw))
	for _, f := range TradeFields {
		val, ok := pickTradeKey(raw, f)
		if !ok {
			continue
		}
		v, err := normalizeValue(f, val)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func pickTradeKey(raw map[string]any, f TradeField) (any, bool) {
	if v, ok := raw[f.Name]; ok {
		return v, true
	}
	for _, a := range f.Aliases {
		if v, ok := raw[a]; ok {
			return v, true
		}
	}
	return nil, false
}

func normalizeValue(f TradeField, val any) (any, error) {
	if val == nil {
		if !f.Nullable {
			return nil, &FieldError{Field: f.Name, Message: "cannot be null"}
		}
		return nil, nil
	}
	switch f.Kind {
	case KindNumber:
		n, empty, err := toFloat(val)
		if err != nil {
			return nil, &FieldError{Field: f.Name, Message: "must be a number"}
		}
		if empty {
			if !f.Nullable {
				return nil, &FieldError{Field: f.Name, Message: "is required"}
			}
			return nil, nil
		}
		return n, nil
	case KindDirection:
		s, ok := val.(string)
		d := Direction(strings.ToLower(strings.TrimSpace(s)))
		if !ok || (d != DirectionLong && d != DirectionShort) {
			return nil, &FieldError{Field: f.Name, Message: "must be one of: long, short"}
		}
		return string(d), nil
	case KindTradeStatus:
		s, ok := val.(string)
		st := TradeStatus(strings.ToLower(strings.TrimSpace(s)))
		if !ok || (st != TradeStatusPending && st != TradeStatusReviewed) {
			return nil, &FieldError{Field: f.Name, Message: "must be one of: pending, reviewed"}
		}
		return string(st), nil
	default:
		s, ok := val.(string)
		if !ok {
			return nil, &FieldError{Field: f.Name, Message: "must be a string"}
		}
		return s, nil
	}
}

func toFloat(val any) (n float64, empty bool, err error) {
	switch x := val.(type) {
	case float64:
		return x, false, nil
	case float32:
		return float64(x), false, nil
	case int:
		return float64(x), false, nil
	case int64:
		return float64(x), false, nil
	case json.Number:
		n, err = x.Float64()
		return n, false, err
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true, nil
		}
		n, err = strconv.ParseFloat(s, 64)
		return n, false, err
	}
	return 0, false, fmt.Errorf("unsupported number type %T", val)
}

// Has reports whether the canonical field is present.
func (p TradePatch) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Without returns a copy of p minus the named fields.
func (p TradePatch) Without(names ...string) TradePatch {
	out := make(TradePatch, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Names returns the canonical field names in table order.
func (p TradePatch) Names() []string {
	names := make([]string, 0, len(p))
	for _, f := range TradeFields {
		if _, ok := p[f.Name]; ok {
			names = append(names, f.Name)
		}
	}
	return names
}

// Apply writes the patch onto t.
func (p TradePatch) Apply(t *Trade) {
	for name, v := range p {
		switch name {
		case "asset":
			t.Asset = str(v)
		case "direction":
			t.Direction = Direction(str(v))
		case "entry":
			t.Entry = num(v)
		case "sl":
			t.SL = num(v)
		case "tp":
			t.TP = numPtr(v)
		case "exit":
			t.Exit = numPtr(v)
		case "status":
			t.Status = TradeStatus(str(v))
		case "strategy":
			t.Strategy = strPtr(v)
		case "emotion":
			t.Emotion = strPtr(v)
		case "planned_r":
			t.PlannedR = numPtr(v)
		case "actual_r":
			t.ActualR = numPtr(v)
		case "display_unit":
			t.DisplayUnit = str(v)
		case "chart_before_url":
			t.ChartBeforeURL = strPtr(v)
		case "chart_after_url":
			t.ChartAfterURL = strPtr(v)
		case "reviewed_by":
			t.ReviewedBy = strPtr(v)
		case "feedback":
			t.Feedback = strPtr(v)
		}
	}
}

// TradeValue returns the storage value of a canonical field on t.
func TradeValue(t *Trade, name string) any {
	switch name {
	case "asset":
		return t.Asset
	case "direction":
		return string(t.Direction)
	case "entry":
		return t.Entry
	case "sl":
		return t.SL
	case "tp":
		return t.TP
	case "exit":
		return t.Exit
	case "status":
		return string(t.Status)
	case "strategy":
		return t.Strategy
	case "emotion":
		return t.Emotion
	case "planned_r":
		return t.PlannedR
	case "actual_r":
		return t.ActualR
	case "display_unit":
		return t.DisplayUnit
	case "chart_before_url":
		return t.ChartBeforeURL
	case "chart_after_url":
		return t.ChartAfterURL
	case "reviewed_by":
		return t.ReviewedBy
	case "feedback":
		return t.Feedback
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func num(v any) float64 {
	n, _ := v.(float64)
	return n
}

func numPtr(v any) *float64 {
	n, ok := v.(float64)
	if !ok {
		return nil
	}
	return &n
}
