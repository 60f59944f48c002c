package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/societyhub/internal/application/port"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// LarkConfig holds Lark bot credentials
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// messageCreator is the slice of the Lark IM API the channel needs
type messageCreator interface {
	Create(ctx context.Context, req *larkIm.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkIm.CreateMessageResp, error)
}

// LarkChannel delivers notifications as Lark text messages addressed by email
type LarkChannel struct {
	messages messageCreator
	logger   *zap.Logger
}

// NewLarkChannel creates a channel backed by the Lark SDK client
func NewLarkChannel(cfg LarkConfig, logger *zap.Logger) *LarkChannel {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return newLarkChannel(client.Im.Message, logger)
}

func newLarkChannel(messages messageCreator, logger *zap.Logger) *LarkChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LarkChannel{messages: messages, logger: logger}
}

// Name returns the channel name
func (c *LarkChannel) Name() string {
	return ChannelLark
}

// Send posts msg to the Lark user registered under the recipient's email
func (c *LarkChannel) Send(ctx context.Context, msg port.OutboundMessage) error {
	if !strings.Contains(msg.Recipient, "@") {
		return fmt.Errorf("lark recipient must be an email address, got %q", msg.Recipient)
	}

	content, err := json.Marshal(map[string]string{"text": larkText(msg)})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(msg.Recipient).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := c.messages.Create(ctx, req)
	if err != nil {
		c.logger.Error("Failed to send Lark message",
			zap.String("recipient", msg.Recipient),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		c.logger.Error("Lark API returned failure",
			zap.String("recipient", msg.Recipient),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	c.logger.Debug("Lark message sent",
		zap.String("message_id", messageID),
		zap.String("recipient", msg.Recipient))
	return nil
}

func larkText(msg port.OutboundMessage) string {
	if msg.Subject == "" {
		return msg.Body
	}
	return msg.Subject + "\n\n" + msg.Body
}

var _ port.NotificationChannel = (*LarkChannel)(nil)
