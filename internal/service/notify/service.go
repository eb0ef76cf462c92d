package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/config"
	"github.com/mamadbah2/shiftlog/internal/domain/models"
	client "github.com/mamadbah2/shiftlog/pkg/clients/whatsapp"
)

var (
	// ErrDisabled is returned when no WhatsApp credentials are configured.
	ErrDisabled = errors.New("whatsapp notifications are disabled")
	// ErrInvalidMessage flags an empty body or a missing recipient.
	ErrInvalidMessage = errors.New("invalid outbound message")
)

// Sender pushes text messages to supervisors.
type Sender interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) (string, error)
}

// WhatsAppNotifier sends reports through the WhatsApp Cloud API.
type WhatsAppNotifier struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewWhatsAppNotifier wires a notifier. A nil client disables sending.
func NewWhatsAppNotifier(cfg config.WhatsAppConfig, c client.Client, logger *zap.Logger) *WhatsAppNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppNotifier{cfg: cfg, client: c, logger: logger}
}

// Enabled reports whether messages can be sent.
func (n *WhatsAppNotifier) Enabled() bool {
	return n != nil && n.client != nil
}

// SendOutbound delivers a text message and returns the provider message id.
// An empty recipient falls back to the configured report recipient.
func (n *WhatsAppNotifier) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) (string, error) {
	if !n.Enabled() {
		return "", ErrDisabled
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		return "", fmt.Errorf("message body is empty: %w", ErrInvalidMessage)
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = n.cfg.ReportRecipient
	}
	if to == "" {
		return "", fmt.Errorf("no recipient given and WHATSAPP_REPORT_RECIPIENT is unset: %w", ErrInvalidMessage)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, err := n.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", to, err)
	}

	id := resp.MessageID()
	n.logger.Info("whatsapp message sent", zap.String("to", to), zap.String("message_id", id))
	return id, nil
}
