package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vibe-music/vibe-music-server/internal/config"
	"github.com/vibe-music/vibe-music-server/internal/events"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the envelope. The body is omitted since it carries secrets.
func (m *LogMailer) Send(_ context.Context, from, to, subject, _ string) error {
	m.logger.Info("email queued", zap.String("from", from), zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	mailer     Mailer
	cfg        config.MailConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, mailer Mailer, cfg config.MailConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		mailer:     mailer,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSessionOpened, n.handleSessionOpened)
	n.dispatcher.Subscribe(events.EventSessionRevoked, n.handleSessionRevoked)
	n.dispatcher.Subscribe(events.EventVerificationCodeRequested, n.handleVerificationCodeRequested)
}

func (n *NotificationService) handleSessionOpened(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SessionOpenedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("SessionOpened",
		zap.String("event_id", event.ID),
		zap.String("role", string(payload.Role)),
		zap.Int64("subject_id", payload.SubjectID),
		zap.Time("expires_at", payload.ExpiresAt),
	)
	return nil
}

func (n *NotificationService) handleSessionRevoked(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SessionRevokedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("SessionRevoked",
		zap.String("event_id", event.ID),
		zap.String("role", string(payload.Role)),
		zap.Int64("subject_id", payload.SubjectID),
		zap.String("reason", string(payload.Reason)),
	)
	return nil
}

func (n *NotificationService) handleVerificationCodeRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VerificationCodeRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	body := fmt.Sprintf("Your verification code is %s.\n\nIt is valid for %d minutes. Do not share it with anyone.",
		payload.Code, int(payload.ExpiresIn.Minutes()))
	if err := n.mailer.Send(ctx, n.cfg.From, payload.Email, "Vibe Music - verification code", body); err != nil {
		n.logger.Warn("verification email failed", zap.String("to", payload.Email), zap.Error(err))
		return err
	}
	return nil
}
