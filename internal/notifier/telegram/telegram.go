// Package telegram delivers report digests through the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/newthinker/macrolens/internal/notifier"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// Telegram implements notifier.Notifier for a single chat.
type Telegram struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
}

// New connects to the public Bot API.
func New(botToken, chatID string) (*Telegram, error) {
	return NewWithEndpoint(botToken, chatID, tgbotapi.APIEndpoint)
}

// NewWithEndpoint connects to a Bot API compatible endpoint. The endpoint
// is a format string taking the token and the method name.
func NewWithEndpoint(botToken, chatID, endpoint string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: invalid chat_id: %w", err)
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create bot: %w", err)
	}

	return &Telegram{
		bot:        bot,
		chatID:     id,
		maxRetries: defaultRetries,
		retryDelay: defaultRetryDelay,
	}, nil
}

// SetRetry overrides the retry count and the linear backoff base.
func (t *Telegram) SetRetry(maxRetries int, delay time.Duration) {
	if maxRetries > 0 {
		t.maxRetries = maxRetries
	}
	if delay >= 0 {
		t.retryDelay = delay
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, d notifier.Digest) error {
	msg := tgbotapi.NewMessage(t.chatID, Format(d))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("telegram: %w", ctx.Err())
		case <-time.After(t.retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("telegram: failed after %d attempts: %w", t.maxRetries, lastErr)
}

// Format renders a digest as a MarkdownV2 message.
func Format(d notifier.Digest) string {
	var sb strings.Builder

	emoji := "⚖️"
	switch d.GlobalRegime {
	case "RISK_ON":
		emoji = "📈"
	case "RISK_OFF":
		emoji = "📉"
	}

	fmt.Fprintf(&sb, "%s *%s*\n", emoji, escape(string(d.GlobalRegime)))
	fmt.Fprintf(&sb, "📊 Confidence: %s\n", escape(fmt.Sprintf("%.1f%%", d.Confidence*100)))
	fmt.Fprintf(&sb, "🎯 Tilt: %s\n", escape(fmt.Sprintf("%+.2f", d.WeightedTilt)))
	fmt.Fprintf(&sb, "💼 Equity %s · Bond %s · Cash %s · Defensive %s\n",
		escape(strconv.Itoa(d.Signals.Equity)),
		escape(strconv.Itoa(d.Signals.Bond)),
		escape(strconv.Itoa(d.Signals.Cash)),
		escape(strconv.Itoa(d.Signals.Defensive)))

	if len(d.Sources) > 0 {
		sb.WriteString("\n")
		for _, s := range d.Sources {
			if !s.Available {
				fmt.Fprintf(&sb, "• %s: unavailable\n", escape(s.Source))
				continue
			}
			fmt.Fprintf(&sb, "• %s: %s \\(%s\\)\n",
				escape(s.Source), escape(s.Label), escape(fmt.Sprintf("%.0f%%", s.Confidence*100)))
		}
	}

	if len(d.Recommendations) > 0 {
		sb.WriteString("\n")
		for _, r := range d.Recommendations {
			fmt.Fprintf(&sb, "💡 %s\n", escape(r))
		}
	}

	if !d.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "\n⏰ %s", escape(d.GeneratedAt.UTC().Format("2006-01-02 15:04:05")))
	}

	return sb.String()
}

// escape escapes the MarkdownV2 reserved characters.
func escape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
