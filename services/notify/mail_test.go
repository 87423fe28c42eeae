package notifysvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	appfs "github.com/trezcool/ecole/fs"
	emailsvc "github.com/trezcool/ecole/services/email"
	"github.com/trezcool/ecole/testutil"
)

func TestMailNotifier_NotifyAdmin(t *testing.T) {
	ctx := context.Background()
	logger := new(testutil.Logger)
	core.ParseEmailTemplates(appfs.FS, "templates/email", true, logger)
	require.Empty(t, logger.Messages())

	conf := &core.Config{AppName: "Ecole", AdminEmails: []string{" Directeur@Ecole.cd ", ""}}
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	notifier := NewMailNotifier(conf, mailer)

	tests := []struct {
		notif       core.Notification
		wantSubject string
		wantText    string
	}{
		{
			notif:       core.Notification{Type: core.NotificationBan, StudentID: "s1", Message: "Amani Kabila a été banni: non-paiement avant le 10"},
			wantSubject: "Élève banni",
			wantText:    "Un élève vient d'être banni.",
		},
		{
			notif:       core.Notification{Type: core.NotificationPayment, StudentID: "s2", Message: "Bisimwa Lumbu a 1 mois de paiement en retard"},
			wantSubject: "Alerte de paiement",
			wantText:    "Une alerte de paiement concerne un élève.",
		},
	}
	for i, tt := range tests {
		t.Run(string(tt.notif.Type), func(t *testing.T) {
			require.NoError(t, notifier.NotifyAdmin(ctx, tt.notif))

			sent := mailer.SentMessages()
			require.Len(t, sent, i+1)
			msg := sent[i]
			assert.Equal(t, tt.wantSubject, msg.Subject)
			require.Len(t, msg.To, 1)
			assert.Equal(t, "directeur@ecole.cd", msg.To[0].Address)
			assert.Contains(t, msg.TextContent, tt.wantText)
			assert.Contains(t, msg.TextContent, tt.notif.Message)
			assert.Contains(t, msg.TextContent, "Élève: "+tt.notif.StudentID)
			assert.Contains(t, msg.TextContent, "Ecole")
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		err := notifier.NotifyAdmin(ctx, core.Notification{Type: "lol"})
		assert.Error(t, err)
	})

	t.Run("no recipients", func(t *testing.T) {
		n := NewMailNotifier(&core.Config{AppName: "Ecole"}, mailer)
		assert.Equal(t, errNoRecipients, n.NotifyAdmin(ctx, tests[0].notif))
	})
}
