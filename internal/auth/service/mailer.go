package service

import (
	"context"
	"log/slog"
)

// Mailer delivers the short-lived codes this service emails out. Actual
// delivery transport lives behind this interface; the default implementation
// just logs, which is also what the test suites hook into.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string)
	SendPasswordResetCode(ctx context.Context, email, code string)
}

// LogMailer writes outgoing mail to the structured log instead of sending it.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendVerificationCode(ctx context.Context, email, code string) {
	m.Logger.Info("email verification code issued", "email", email, "code", code)
}

func (m *LogMailer) SendPasswordResetCode(ctx context.Context, email, code string) {
	m.Logger.Info("password reset code issued", "email", email, "code", code)
}
