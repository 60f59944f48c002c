// Package notify holds the outbound notification channels.
package notify

import (
	"context"

	"github.com/garyjia/societyhub/internal/application/port"
	"go.uber.org/zap"
)

// Channel names as they appear in config and in the notification log
const (
	ChannelLog   = "log"
	ChannelLark  = "lark"
	ChannelRedis = "redis"
)

// LogChannel writes every message to the application log. It never fails.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a channel that logs messages at info level
func NewLogChannel(logger *zap.Logger) *LogChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogChannel{logger: logger.Named("notify")}
}

// Name returns the channel name
func (c *LogChannel) Name() string {
	return ChannelLog
}

// Send logs the message
func (c *LogChannel) Send(ctx context.Context, msg port.OutboundMessage) error {
	c.logger.Info("Notification",
		zap.String("type", msg.Type),
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
		zap.String("transaction_id", msg.TransactionID),
		zap.String("body", msg.Body))
	return nil
}

var _ port.NotificationChannel = (*LogChannel)(nil)
