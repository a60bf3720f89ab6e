package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TrendPress/internal/ports"
	"TrendPress/internal/textutil"
	"TrendPress/pkg/httpclient"
)

const (
	defaultAPIBase   = "https://api.telegram.org"
	maxMessageRunes  = 4096
	truncationSuffix = "\n…"
)

// Notifier sends run digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   httpclient.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   httpclient.NewRestyClient(5 * time.Second),
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishDigest posts a Markdown message, cut to the Telegram length limit.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.apiBase, "/"), n.botToken)
	resp, err := n.client.PostJSON(ctx, endpoint, nil, sendMessageRequest{
		ChatID:                n.chatID,
		Text:                  fitMessage(digest),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	var body apiResponse
	if raw := resp.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return fmt.Errorf("telegram response %s: %q: %w", resp.Status(), httpclient.Snippet(resp, 120), err)
		}
	}
	if !httpclient.IsSuccess(resp) || (len(resp.Body()) > 0 && !body.OK) {
		if body.Description != "" {
			return fmt.Errorf("telegram error: %s: %s", resp.Status(), body.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status())
	}
	return nil
}

func fitMessage(text string) string {
	if len([]rune(text)) <= maxMessageRunes {
		return text
	}
	return textutil.Truncate(text, maxMessageRunes-len([]rune(truncationSuffix))) + truncationSuffix
}
