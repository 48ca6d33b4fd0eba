package mailer

import (
	"errors"
	"fmt"
	"strings"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (plus Data) or Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // account_pending, account_approved
	Data     map[string]any `json:"data,omitempty"`
}

// EnsureRecipient fills To from Data["RecipientEmail"] or Data["Email"] when missing, and
// mirrors the recipient back into Data so templates can use it.
func (j *EmailJob) EnsureRecipient() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if strings.TrimSpace(j.To) == "" {
		for _, key := range []string{"RecipientEmail", "Email"} {
			if v, ok := j.Data[key]; ok {
				if s := strings.TrimSpace(fmt.Sprintf("%v", v)); s != "" {
					j.To = s
					break
				}
			}
		}
	}
	if v, ok := j.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["RecipientEmail"] = j.To
	}
}

func (j *EmailJob) Validate() error {
	if strings.TrimSpace(j.To) == "" {
		return errors.New("email job has no recipient")
	}
	if j.Template == "" && j.Subject == "" {
		return errors.New("email job needs a template or a subject")
	}
	if j.Template == "" && j.Text == "" && j.HTML == "" {
		return errors.New("email job has no body")
	}
	return nil
}
