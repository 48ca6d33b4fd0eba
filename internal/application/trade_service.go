package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/policy"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

type TradeService struct {
	Store  repository.Store
	Logger *logrus.Logger
}

func NewTradeService(store repository.Store, logger *logrus.Logger) *TradeService {
	return &TradeService{Store: store, Logger: logger}
}

type TradeList struct {
	Items []*entity.Trade
	Total int
}

var requiredTradeFields = []string{"asset", "direction", "entry", "sl"}

// List returns trades visible to actor. Students only ever see their own.
func (s *TradeService) List(ctx context.Context, actor policy.Actor, f entity.TradeFilter) (*TradeList, error) {
	if d := policy.Authorize(actor, policy.ListTrades, nil); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	if f.Status != "" && f.Status != entity.TradeStatusPending && f.Status != entity.TradeStatusReviewed {
		return nil, validationError("invalid filter", map[string]string{"status": "must be one of: pending, reviewed"})
	}
	f = policy.ScopeTrades(actor, f)
	items, err := s.Store.ListTrades(ctx, f)
	if err != nil {
		return nil, storeError(err, "trade")
	}
	out := &TradeList{Items: items, Total: len(items)}
	if f.Limit > 0 {
		if out.Total, err = s.Store.CountTrades(ctx, f); err != nil {
			return nil, storeError(err, "trade")
		}
	}
	return out, nil
}

// load fetches the trade and checks action against it: 404 before 403.
func (s *TradeService) load(ctx context.Context, actor policy.Actor, action policy.Action, id string) (*entity.Trade, error) {
	t, err := s.Store.GetTrade(ctx, id)
	if err != nil {
		return nil, storeError(err, "trade")
	}
	if d := policy.Authorize(actor, action, t); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	return t, nil
}

func (s *TradeService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Trade, error) {
	return s.load(ctx, actor, policy.GetTrade, id)
}

// Create records a new trade for the calling student. The owner is always the caller
// and review fields cannot be set.
func (s *TradeService) Create(ctx context.Context, actor policy.Actor, raw map[string]any) (*entity.Trade, error) {
	if d := policy.Authorize(actor, policy.CreateTrade, nil); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	patch, err := entity.NormalizeTradePatch(raw)
	if err != nil {
		return nil, fieldError(err)
	}
	patch = patch.Without(entity.ReviewTradeFields...)
	missing := map[string]string{}
	for _, name := range requiredTradeFields {
		if !patch.Has(name) || patch[name] == nil {
			missing[name] = "is required"
		}
	}
	if v, ok := patch["asset"].(string); ok && strings.TrimSpace(v) == "" {
		missing["asset"] = "is required"
	}
	if len(missing) > 0 {
		return nil, validationError("invalid trade payload", missing)
	}

	t := &entity.Trade{}
	patch.Apply(t)
	t.Asset = strings.TrimSpace(t.Asset)
	t.UserID = actor.ID
	t.Status = entity.TradeStatusPending
	if err := s.Store.CreateTrade(ctx, t); err != nil {
		return nil, storeError(err, "trade")
	}
	helpers.LogInfo(s.Logger, "trade created", logrus.Fields{"trade_id": t.ID, "user_id": t.UserID})
	return t, nil
}

// Update patches a trade after re-fetching it. Students may not touch review fields;
// a coach or admin marking a trade reviewed is stamped as the reviewer.
func (s *TradeService) Update(ctx context.Context, actor policy.Actor, id string, raw map[string]any) (*entity.Trade, error) {
	patch, err := entity.NormalizeTradePatch(raw)
	if err != nil {
		return nil, fieldError(err)
	}
	if _, err := s.load(ctx, actor, policy.UpdateTrade, id); err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleStudent {
		patch = patch.Without(entity.ReviewTradeFields...)
	} else if !patch.Has("reviewed_by") && (patch["status"] == string(entity.TradeStatusReviewed) || patch.Has("feedback")) {
		patch["reviewed_by"] = actor.ID
	}
	if v, ok := patch["asset"].(string); ok && strings.TrimSpace(v) == "" {
		return nil, validationError("invalid trade payload", map[string]string{"asset": "cannot be empty"})
	}
	if len(patch) == 0 {
		return nil, storeError(repository.ErrNoUpdatableFields, "trade")
	}
	t, err := s.Store.UpdateTrade(ctx, id, patch)
	if err != nil {
		return nil, storeError(err, "trade")
	}
	helpers.LogInfo(s.Logger, "trade updated", logrus.Fields{"trade_id": id, "by": actor.ID, "fields": patch.Names()})
	return t, nil
}

func (s *TradeService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.load(ctx, actor, policy.DeleteTrade, id); err != nil {
		return err
	}
	ok, err := s.Store.DeleteTrade(ctx, id)
	if err != nil {
		return storeError(err, "trade")
	}
	if !ok {
		return notFound("trade")
	}
	helpers.LogInfo(s.Logger, "trade deleted", logrus.Fields{"trade_id": id, "by": actor.ID})
	return nil
}
