package bitable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const messagesPath = "/im/v1/messages"

// Notifier sends plain text messages to a single Lark user
type Notifier struct {
	transport *transport
	tokens    *TokenProvider
	openID    string
	logger    *zap.Logger
}

// NewNotifier creates a notifier that reuses the client's credentials.
// An empty openID yields a notifier whose Notify is a no-op.
func NewNotifier(client *Client, openID string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		transport: client.transport,
		tokens:    client.tokens,
		openID:    openID,
		logger:    logger.Named("notifier"),
	}
}

// Enabled returns true if a recipient is configured
func (n *Notifier) Enabled() bool {
	return n.openID != ""
}

// Notify sends text to the configured recipient
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if !n.Enabled() {
		return nil
	}

	content, err := json.Marshal(TextContent{Text: text})
	if err != nil {
		return fmt.Errorf("bitable: failed to marshal message content: %w", err)
	}

	token, err := n.tokens.Token(ctx)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("receive_id_type", "open_id")
	req := SendMessageRequest{
		ReceiveID: n.openID,
		MsgType:   "text",
		Content:   string(content),
	}

	var resp Response
	if err := n.transport.do(ctx, http.MethodPost, messagesPath, query, token, req, &resp); err != nil {
		return fmt.Errorf("bitable: send message failed: %w", err)
	}

	n.logger.Debug("notification sent", zap.String("open_id", n.openID))
	return nil
}
