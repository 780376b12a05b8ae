package service

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers account emails
type Mailer interface {
	SendWelcome(ctx context.Context, to, name, activationLink string) error
	SendCancellation(ctx context.Context, to, name string) error
}

// LogMailer writes outgoing mail to the log instead of sending it
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendWelcome(_ context.Context, to, name, activationLink string) error {
	m.logger.Info("Sending welcome email",
		zap.String("to", to),
		zap.String("name", name),
		zap.String("activation_link", activationLink),
	)
	return nil
}

func (m *LogMailer) SendCancellation(_ context.Context, to, name string) error {
	m.logger.Info("Sending cancellation email",
		zap.String("to", to),
		zap.String("name", name),
	)
	return nil
}
