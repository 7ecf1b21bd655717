// Package discord posts event announcements to organizer-owned webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/felicity-connect/backend/internal/domain"
)

type Webhook struct {
	client *http.Client
}

func NewWebhook() *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type message struct {
	Content string  `json:"content"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Fields      []struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	} `json:"fields,omitempty"`
}

// NotifyEventPublished announces a freshly published event.
func (w *Webhook) NotifyEventPublished(ctx context.Context, webhookURL string, event domain.Event) error {
	payload := message{
		Content: fmt.Sprintf("New event: **%s**", event.Name),
		Embeds: []embed{{
			Title:       event.Name,
			Description: event.Description,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("w.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}

	return nil
}
