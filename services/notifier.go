package services

import "log/slog"

// Notification is delivered outside the request path. Failures are logged and
// never returned to callers.
type Notification struct {
	RecipientEmail string
	TournamentID   int
	TournamentName string
	Message        string
}

type Notifier interface {
	NotifyStatusChange(n Notification)
}

type emailNotifier struct {
	email  *EmailService
	logger *slog.Logger
}

func NewEmailNotifier(email *EmailService, logger *slog.Logger) Notifier {
	return &emailNotifier{email: email, logger: logger}
}

func (e *emailNotifier) NotifyStatusChange(n Notification) {
	if n.RecipientEmail == "" {
		return
	}
	go func() {
		err := e.email.SendTournamentStatusEmail(n.RecipientEmail, n.TournamentName, n.Message, n.TournamentID)
		if err != nil {
			e.logger.Error("failed to send status email",
				slog.String("email", n.RecipientEmail),
				slog.Int("tournament_id", n.TournamentID),
				slog.String("error", err.Error()))
		}
	}()
}

type nopNotifier struct{}

// NewNopNotifier returns a notifier that discards everything. Used when SMTP
// is not configured and in tests.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) NotifyStatusChange(Notification) {}
