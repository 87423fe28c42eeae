// Package notifysvc delivers admin notifications.
package notifysvc

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

var (
	errNoRecipients = errors.New("no admin email configured")

	subjects = map[core.NotificationType]string{
		core.NotificationBan:     "Élève banni",
		core.NotificationPayment: "Alerte de paiement",
	}
)

// MailNotifier emails the notifications to the school administration.
type MailNotifier struct {
	appName    string
	recipients []mail.Address
	mailer     core.EmailService
}

var _ core.Notifier = (*MailNotifier)(nil)

func NewMailNotifier(conf *core.Config, mailer core.EmailService) *MailNotifier {
	return &MailNotifier{
		appName:    conf.AppName,
		recipients: conf.AdminAddresses(),
		mailer:     mailer,
	}
}

// NotifyAdmin renders the notification then hands it to the mailer, which sends it in the background.
func (n *MailNotifier) NotifyAdmin(_ context.Context, notif core.Notification) error {
	if len(n.recipients) == 0 {
		return errNoRecipients
	}
	subject, ok := subjects[notif.Type]
	if !ok {
		return errors.Errorf("unknown notification type %q", notif.Type)
	}

	msg := &core.EmailMessage{
		To:           n.recipients,
		Subject:      subject,
		TemplateName: string(notif.Type),
		TemplateData: notif,
	}
	if err := msg.Render(n.appName); err != nil {
		return errors.Wrap(err, "rendering notification")
	}
	if !msg.HasContent() {
		// template missing; deliver the bare message
		msg.TextContent = fmt.Sprintf("%s\n\nÉlève: %s", notif.Message, notif.StudentID)
	}
	n.mailer.SendMessages(msg)
	return nil
}
