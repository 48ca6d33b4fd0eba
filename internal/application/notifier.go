package application

import (
	"context"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
)

// Notifier tells users about account lifecycle changes. Failures are logged by callers
// and never fail the request.
type Notifier interface {
	AccountPending(ctx context.Context, u *entity.User) error
	AccountApproved(ctx context.Context, u *entity.User) error
}

type NoopNotifier struct{}

func (NoopNotifier) AccountPending(context.Context, *entity.User) error  { return nil }
func (NoopNotifier) AccountApproved(context.Context, *entity.User) error { return nil }
