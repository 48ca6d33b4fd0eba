package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/uptrade-api/pkg/mailer/templates"
)

// ErrPermanent marks jobs that can never be delivered and must not be requeued.
var ErrPermanent = errors.New("permanent email failure")

// Process decodes, renders and sends one queued job. Errors wrapping ErrPermanent
// should be dropped; anything else may be retried.
func Process(ctx context.Context, sender Sender, body []byte) (*EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrPermanent, err)
	}
	job.EnsureRecipient()
	if err := job.Validate(); err != nil {
		return &job, fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !mailtpl.Known(job.Template) {
			return &job, fmt.Errorf("%w: unknown template %q", ErrPermanent, job.Template)
		}
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return &job, fmt.Errorf("%w: render %s: %v", ErrPermanent, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	if err := sender.Send(ctx, job.To, subject, text, html); err != nil {
		return &job, fmt.Errorf("send: %w", err)
	}
	return &job, nil
}
