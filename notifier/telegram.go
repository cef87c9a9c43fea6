// Package notifier delivers text messages to Telegram chats through the Bot API.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"apartment-watcher/config"
	"apartment-watcher/utils"
)

// Message is one outgoing chat message in Telegram legacy Markdown.
type Message struct {
	Text           string
	DisablePreview bool
}

// TelegramClient sends messages with the sendMessage method.
type TelegramClient struct {
	bot     *bot.Bot
	limiter *rate.Limiter
	retry   *utils.RetryConfig
}

// NewTelegramClient creates a client for the configured bot. No request is
// made until the first Send.
func NewTelegramClient(cfg *config.Config, logger *utils.Logger) (*TelegramClient, error) {
	b, err := bot.New(cfg.TelegramToken,
		bot.WithServerURL(strings.TrimRight(cfg.TelegramAPIURL, "/")),
		bot.WithHTTPClient(15*time.Second, &http.Client{Timeout: 15 * time.Second}),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	perSec := cfg.NotifyRatePerSec
	if perSec < 1 {
		perSec = 1
	}
	return &TelegramClient{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.NotifyMaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}, nil
}

// Send delivers msg to one chat. Rate limits, server and transport errors
// are retried up to the configured attempts; requests Telegram rejects are
// returned at once.
func (c *TelegramClient) Send(ctx context.Context, chatID string, msg Message) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      msg.Text,
		ParseMode: tgmodels.ParseModeMarkdownV1,
		LinkPreviewOptions: &tgmodels.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	}
	if !msg.DisablePreview {
		params.LinkPreviewOptions = nil
	}

	return c.retry.Do(ctx, "telegram-send", func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}
		_, err := c.bot.SendMessage(ctx, params)
		return classify(err)
	})
}

// classify strips the bot token from transport errors and marks rejections
// that a retry cannot fix.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("telegram: %s: %w", urlErr.Op, urlErr.Err)
	}

	err = fmt.Errorf("telegram: %w", err)
	switch {
	case errors.Is(err, bot.ErrorBadRequest),
		errors.Is(err, bot.ErrorUnauthorized),
		errors.Is(err, bot.ErrorForbidden),
		errors.Is(err, bot.ErrorNotFound):
		return utils.Permanent(err)
	}
	return err
}
