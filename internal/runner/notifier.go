package runner

import (
	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/notify"
)

// NewNotifier maps the configured delivery onto a shoutrrr notifier: the
// notify URL when set, otherwise SMTP built from the email block.
func NewNotifier(cfg *config.Config) *notify.Shoutrrr {
	if cfg.Notify.URL != "" {
		return notify.FromURL(cfg.Notify.URL, cfg.Notify.Params)
	}
	return notify.FromEmail(mapEmail(cfg.Email))
}

func mapEmail(e config.Email) notify.Email {
	return notify.Email{
		User:      e.User,
		Password:  e.Password,
		Sender:    e.Sender,
		Recipient: e.Recipient,
		Host:      e.SMTPHost,
		Port:      e.SMTPPort,
	}
}
