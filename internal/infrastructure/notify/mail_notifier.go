// Package notify queues account emails for the email worker.
package notify

import (
	"context"
	"time"

	"github.com/oksasatya/uptrade-api/config"
	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/pkg/mailer"
	mailtpl "github.com/oksasatya/uptrade-api/pkg/mailer/templates"
)

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MailNotifier turns account events into EmailJobs on the queue.
type MailNotifier struct {
	cfg       *config.Config
	publisher Publisher
	now       func() time.Time
}

var _ application.Notifier = (*MailNotifier)(nil)

func NewMailNotifier(cfg *config.Config, publisher Publisher) *MailNotifier {
	return &MailNotifier{cfg: cfg, publisher: publisher, now: time.Now}
}

func (n *MailNotifier) AccountPending(ctx context.Context, u *entity.User) error {
	data := mailtpl.NewAccountPendingData(n.cfg, u.Name, u.Email, mailtpl.WithRole(string(u.Role)), mailtpl.WithTime(n.now()))
	return n.publish(ctx, u.Email, mailtpl.AccountPending, data)
}

func (n *MailNotifier) AccountApproved(ctx context.Context, u *entity.User) error {
	data := mailtpl.NewAccountApprovedData(n.cfg, u.Name, u.Email, mailtpl.WithRole(string(u.Role)), mailtpl.WithTime(n.now()))
	return n.publish(ctx, u.Email, mailtpl.AccountApproved, data)
}

func (n *MailNotifier) publish(ctx context.Context, to, template string, data map[string]any) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return n.publisher.PublishJSON(c, mailer.EmailJob{To: to, Template: template, Data: data})
}
