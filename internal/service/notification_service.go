package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/events"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/notifications"
)

// NotificationService handles emitting notifications for domain events.
// Email goes through the configured provider; webhooks are logged only.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notifications.EmailProvider
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. A nil mailer logs email instead of sending it.
func NewNotificationService(dispatcher events.Dispatcher, mailer notifications.EmailProvider, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = notifications.NewLogProvider(logger)
	}
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.handleTicketDeleted)
}

// SendPasswordReset emails the reset token to the account's address.
// Delivery failures are returned so the caller can report them.
func (n *NotificationService) SendPasswordReset(ctx context.Context, user *domain.User, token string) error {
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Hola %s,\n\n", user.FullName())
	body.WriteString("Recibimos una solicitud para restablecer su contraseña de la mesa de ayuda.\n\n")
	if link := n.resetLink(token); link != "" {
		fmt.Fprintf(&body, "Abra este enlace para elegir una nueva contraseña:\n%s\n\n", link)
	}
	fmt.Fprintf(&body, "Código de restablecimiento: %s\n\n", token)
	body.WriteString("Si usted no hizo esta solicitud, ignore este mensaje.\n")

	err := n.mailer.Send(ctx, notifications.EmailMessage{
		To:      []string{user.Email},
		Subject: "Restablecer contraseña",
		Body:    body.String(),
	})
	if err != nil {
		n.logger.Error("sendPasswordResetFailed", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) resetLink(token string) string {
	base := strings.TrimSpace(n.cfg.ResetURL)
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketCreatedPayload)
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.String("number", payload.Number))
	n.sendEmail(ctx, payload.RequesterEmail,
		fmt.Sprintf("Ticket %s recibido", payload.Number),
		fmt.Sprintf("Su ticket %s fue registrado. Le avisaremos cuando cambie de estado.\n", payload.Number))
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketStatusChangedPayload)
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	if payload.OldStatus != payload.NewStatus {
		n.sendEmail(ctx, payload.RequesterEmail,
			fmt.Sprintf("Ticket %s actualizado", payload.Number),
			fmt.Sprintf("Su ticket %s cambió a %s.\n", payload.Number, payload.NewStatus))
	}
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhook(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketDeleted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhook(ctx, event)
	return nil
}

// sendEmail delivers a ticket notice. Failures are logged and never fail the event.
func (n *NotificationService) sendEmail(ctx context.Context, to, subject, body string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(to) == "" {
		return
	}
	err := n.mailer.Send(ctx, notifications.EmailMessage{To: []string{to}, Subject: subject, Body: body})
	if err != nil {
		n.logger.Warn("sendEmailNotificationFailed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
