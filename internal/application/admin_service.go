package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/policy"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/internal/retention"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// RetentionRunner performs one chart-retention sweep and reports how many trades it cleared.
type RetentionRunner interface {
	RunOnce(ctx context.Context) (int64, error)
}

type AdminService struct {
	Store     repository.Store
	Retention RetentionRunner
	Logger    *logrus.Logger
}

func NewAdminService(store repository.Store, retention RetentionRunner, logger *logrus.Logger) *AdminService {
	return &AdminService{Store: store, Retention: retention, Logger: logger}
}

func (s *AdminService) Stats(ctx context.Context, actor policy.Actor) (*entity.StorageStats, error) {
	if d := policy.Authorize(actor, policy.StorageStats, nil); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	st, err := s.Store.Stats(ctx)
	if err != nil {
		return nil, storeError(err, "stats")
	}
	return st, nil
}

// RunRetention triggers a sweep on demand.
func (s *AdminService) RunRetention(ctx context.Context, actor policy.Actor) (int64, error) {
	if d := policy.Authorize(actor, policy.RunRetention, nil); d.Denied() {
		return 0, forbidden(d.Reason)
	}
	if s.Retention == nil {
		return 0, newError(KindConflict, CodeRetentionDisabled, "retention job is disabled")
	}
	n, err := s.Retention.RunOnce(ctx)
	if errors.Is(err, retention.ErrLocked) {
		return 0, &AppError{Kind: KindConflict, Code: CodeRetentionLockTaken, Message: "retention sweep already running", Err: err}
	}
	if err != nil {
		return 0, storeError(err, "trade")
	}
	helpers.LogInfo(s.Logger, "retention run triggered", logrus.Fields{"cleared": n, "by": actor.ID})
	return n, nil
}
