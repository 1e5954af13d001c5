package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"pinnacle/internal/constants"
	"pinnacle/internal/metrics"
	"pinnacle/internal/privacy"
	"pinnacle/pkg/pinnacle/types"
	"pinnacle/pkg/pinnacle/webhook"
)

const (
	statusesTotal = "pinnacle_message_statuses_total"
	receivedTotal = "pinnacle_messages_received_total"
	typingTotal   = "pinnacle_user_typing_total"
)

// registerEventHandlers installs the default handlers: each event is logged
// with its identifiers masked and counted in the metrics registry.
func registerEventHandlers(d *webhook.Dispatcher, logger *logrus.Logger) {
	d.OnMessageStatus(func(ctx context.Context, e types.MessageStatusEvent) error {
		metrics.IncrementCounter(statusesTotal, map[string]string{"status": string(e.Status)}, "Message status updates received")

		entry := logger.WithFields(logrus.Fields{
			constants.LogFieldMessageID: privacy.MaskMessageID(e.MessageID),
			"status":                    e.Status,
		})
		if e.Segments != nil {
			entry = entry.WithField("segments", *e.Segments)
		}
		if e.Error != nil {
			entry.WithField("delivery_error", *e.Error).Warn("Message delivery reported an error")
			return nil
		}
		entry.Info("Message status updated")
		return nil
	})

	d.OnMessageReceived(func(ctx context.Context, e types.MessageReceivedEvent) error {
		variant := e.Message.Tag()
		metrics.IncrementCounter(receivedTotal, map[string]string{"variant": variant}, "Inbound messages received")

		logger.WithFields(logrus.Fields{
			constants.LogFieldMessageID: privacy.MaskMessageID(e.MessageID),
			constants.LogFieldFrom:      privacy.MaskPhoneNumber(e.From),
			constants.LogFieldVariant:   variant,
			"message_type":              e.MessageType,
		}).Info("Message received")
		return nil
	})

	d.OnUserTyping(func(ctx context.Context, e types.UserTypingEvent) error {
		metrics.IncrementCounter(typingTotal, nil, "Typing indicators received")

		logger.WithField(constants.LogFieldFrom, privacy.MaskPhoneNumber(e.From)).Debug("User typing")
		return nil
	})
}
