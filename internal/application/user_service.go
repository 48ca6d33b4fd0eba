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

type UserService struct {
	Store        repository.Store
	Notifier     Notifier
	Logger       *logrus.Logger
	PasswordCost int
}

func NewUserService(store repository.Store, notifier Notifier, logger *logrus.Logger) *UserService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &UserService{Store: store, Notifier: notifier, Logger: logger}
}

// UserList is one page of users. Total is only counted for paged requests.
type UserList struct {
	Items []*entity.User
	Total int
}

type UpdateUserInput struct {
	Name     *string
	Role     *string
	Status   *string
	Password *string
}

func (s *UserService) List(ctx context.Context, actor policy.Actor, f entity.UserFilter) (*UserList, error) {
	if d := policy.Authorize(actor, policy.ListUsers, nil); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, validationError("invalid filter", map[string]string{"status": "must be one of: pending, approved, active"})
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, validationError("invalid filter", map[string]string{"role": "must be one of: admin, coach, student"})
	}
	items, err := s.Store.ListUsers(ctx, f)
	if err != nil {
		return nil, storeError(err, "user")
	}
	out := &UserList{Items: items, Total: len(items)}
	if f.Limit > 0 {
		if out.Total, err = s.Store.CountUsers(ctx, f); err != nil {
			return nil, storeError(err, "user")
		}
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.User, error) {
	if d := policy.Authorize(actor, policy.GetUser, nil); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return u, nil
}

// Update applies an admin edit. Approving a pending account notifies its owner.
func (s *UserService) Update(ctx context.Context, actor policy.Actor, id string, in UpdateUserInput) (*entity.User, error) {
	if d := policy.Authorize(actor, policy.UpdateUser, nil); d.Denied() {
		return nil, forbidden(d.Reason)
	}
	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, storeError(repository.ErrNoUpdatableFields, "user")
	}
	before, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	u, err := s.Store.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, storeError(err, "user")
	}
	helpers.LogInfo(s.Logger, "user updated", logrus.Fields{"user_id": id, "by": actor.ID})
	if before.Status == entity.UserStatusPending && u.Status != entity.UserStatusPending {
		if err := s.Notifier.AccountApproved(ctx, u); err != nil {
			helpers.LogError(s.Logger, "account approved notification failed", err, logrus.Fields{"user_id": u.ID})
		}
	}
	return u, nil
}

func (s *UserService) buildPatch(in UpdateUserInput) (entity.UserPatch, error) {
	var p entity.UserPatch
	details := map[string]string{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		p.Name = &name
	}
	if in.Role != nil {
		r := entity.Role(strings.ToLower(strings.TrimSpace(*in.Role)))
		if !r.Valid() {
			details["role"] = "must be one of: admin, coach, student"
		}
		p.Role = &r
	}
	if in.Status != nil {
		st := entity.UserStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !st.Valid() {
			details["status"] = "must be one of: pending, approved, active"
		}
		p.Status = &st
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			details["password"] = "must be at least 6 characters long"
		} else {
			hash, err := helpers.HashPasswordCost(*in.Password, s.PasswordCost)
			if err != nil {
				return p, &AppError{Kind: KindInternal, Code: CodeInternal, Message: "hash password", Err: err}
			}
			p.PasswordHash = &hash
		}
	}
	if len(details) > 0 {
		return p, validationError("invalid user update", details)
	}
	return p, nil
}

// Delete removes a user after deleting each owned trade in turn. Trade failures are
// logged and do not stop the user delete.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if d := policy.Authorize(actor, policy.DeleteUser, nil); d.Denied() {
		return forbidden(d.Reason)
	}
	if _, err := s.Store.GetUser(ctx, id); err != nil {
		return storeError(err, "user")
	}
	trades, err := s.Store.ListTrades(ctx, entity.TradeFilter{OwnerID: id})
	if err != nil {
		helpers.LogError(s.Logger, "list trades for user delete failed", err, logrus.Fields{"user_id": id})
	}
	removed := 0
	for _, t := range trades {
		if _, err := s.Store.DeleteTrade(ctx, t.ID); err != nil {
			helpers.LogError(s.Logger, "delete trade during user delete failed", err, logrus.Fields{"user_id": id, "trade_id": t.ID})
			continue
		}
		removed++
	}
	ok, err := s.Store.DeleteUser(ctx, id)
	if err != nil {
		return storeError(err, "user")
	}
	if !ok {
		return notFound("user")
	}
	helpers.LogInfo(s.Logger, "user deleted", logrus.Fields{"user_id": id, "trades_removed": removed, "by": actor.ID})
	return nil
}
