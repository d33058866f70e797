package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type WebhookInfo struct {
	URL                string    `json:"url"`
	PendingUpdateCount int       `json:"pendingUpdateCount"`
	LastErrorMessage   string    `json:"lastErrorMessage,omitempty"`
	LastErrorAt        time.Time `json:"lastErrorAt,omitempty"`
	MaxConnections     int       `json:"maxConnections,omitempty"`
}

func (s *Sender) SetWebhook(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("webhook url is required")
	}
	cfg, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if err := s.request(ctx, "setWebhook", cfg); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "telegram webhook set", "url", url)
	return nil
}

func (s *Sender) DeleteWebhook(ctx context.Context, dropPending bool) error {
	if err := s.request(ctx, "deleteWebhook", tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "telegram webhook deleted", "drop_pending", dropPending)
	return nil
}

func (s *Sender) WebhookInfo(ctx context.Context) (WebhookInfo, error) {
	if err := ctx.Err(); err != nil {
		return WebhookInfo{}, err
	}
	api, err := s.bot()
	if err != nil {
		return WebhookInfo{}, err
	}
	info, err := api.GetWebhookInfo()
	if err != nil {
		return WebhookInfo{}, classifyError("getWebhookInfo", err, s.token)
	}

	out := WebhookInfo{
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorMessage:   info.LastErrorMessage,
		MaxConnections:     info.MaxConnections,
	}
	if info.LastErrorDate > 0 {
		out.LastErrorAt = time.Unix(int64(info.LastErrorDate), 0).UTC()
	}
	return out, nil
}

func (s *Sender) request(ctx context.Context, method string, cfg tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	api, err := s.bot()
	if err != nil {
		return err
	}
	resp, err := api.Request(cfg)
	if err != nil {
		return classifyError(method, err, s.token)
	}
	if resp != nil && !resp.Ok {
		return fmt.Errorf("telegram %s rejected: %s", method, resp.Description)
	}
	return nil
}
