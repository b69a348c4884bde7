// Package calendar creates Google Calendar events on behalf of a connected
// Discord user. Dates are normalized by the n8n workflow before the event is
// inserted.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"BotDeck/internal/oauth"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const ServiceName = "google_calendar"

var (
	ErrInvalidRequest        = errors.New("userDiscordId, summary, startDateTime and endDateTime are required")
	ErrNotConnected          = errors.New("User has not connected their Google Calendar")
	ErrWebhookNotConfigured  = errors.New("N8N_WEBHOOK_URL not configured")
	ErrWebhookFailed         = errors.New("n8n webhook failed")
	ErrProviderRequestFailed = errors.New("failed to create calendar event")
)

type TokenSource interface {
	ActiveToken(ctx context.Context, userDiscordID, serviceName string) (string, error)
}

type EventData struct {
	Summary       string `json:"summary"`
	Description   string `json:"description"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

type Request struct {
	UserDiscordID string    `json:"userDiscordId"`
	EventData     EventData `json:"eventData"`
}

type Result struct {
	Success   bool   `json:"success"`
	EventID   string `json:"eventId,omitempty"`
	EventLink string `json:"eventLink,omitempty"`
	Error     string `json:"error,omitempty"`
}

type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type WebhookEvent struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

type webhookPayload struct {
	UserDiscordID string       `json:"userDiscordId"`
	Event         WebhookEvent `json:"event"`
}

type Config struct {
	WebhookURL string
	Timezone   string
	// Endpoint overrides the Calendar API base URL.
	Endpoint   string
	HTTPClient *http.Client
}

type Creator struct {
	tokens TokenSource
	cfg    Config
	logger *zap.Logger
}

func NewCreator(tokens TokenSource, cfg Config, logger *zap.Logger) *Creator {
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Los_Angeles"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Creator{tokens: tokens, cfg: cfg, logger: logger}
}

func (r Request) Validate() error {
	if r.UserDiscordID == "" || r.EventData.Summary == "" ||
		r.EventData.StartDateTime == "" || r.EventData.EndDateTime == "" {
		return ErrInvalidRequest
	}
	return nil
}

// Create resolves the user's token first, so an unconnected user never
// reaches the webhook or the provider.
func (c *Creator) Create(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := c.tokens.ActiveToken(ctx, req.UserDiscordID, ServiceName)
	if errors.Is(err, oauth.ErrNotConnected) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	event := WebhookEvent{
		Summary:     req.EventData.Summary,
		Description: req.EventData.Description,
		Start:       EventTime{DateTime: req.EventData.StartDateTime, TimeZone: c.cfg.Timezone},
		End:         EventTime{DateTime: req.EventData.EndDateTime, TimeZone: c.cfg.Timezone},
	}

	normalized, err := c.postWebhook(ctx, req.UserDiscordID, event)
	if err != nil {
		return nil, err
	}

	created, err := c.insertEvent(ctx, token, normalized)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Calendar event created",
		zap.String("user_discord_id", req.UserDiscordID),
		zap.String("event_id", created.Id))
	return &Result{Success: true, EventID: created.Id, EventLink: created.HtmlLink}, nil
}

// postWebhook sends the event to n8n and returns the normalized event it
// answers with, or the input when the answer carries no usable event.
func (c *Creator) postWebhook(ctx context.Context, userDiscordID string, event WebhookEvent) (WebhookEvent, error) {
	if c.cfg.WebhookURL == "" {
		return event, ErrWebhookNotConfigured
	}

	body, err := json.Marshal(webhookPayload{UserDiscordID: userDiscordID, Event: event})
	if err != nil {
		return event, fmt.Errorf("marshal webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return event, fmt.Errorf("build webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return event, fmt.Errorf("%w: %v", ErrWebhookFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return event, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("n8n webhook error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return event, fmt.Errorf("%w with status %d", ErrWebhookFailed, resp.StatusCode)
	}

	var answer struct {
		Event *WebhookEvent `json:"event"`
	}
	if err := json.Unmarshal(respBody, &answer); err != nil || answer.Event == nil {
		return event, nil
	}
	if answer.Event.Start.DateTime == "" || answer.Event.End.DateTime == "" {
		return event, nil
	}

	out := *answer.Event
	if out.Summary == "" {
		out.Summary = event.Summary
	}
	if out.Description == "" {
		out.Description = event.Description
	}
	if out.Start.TimeZone == "" {
		out.Start.TimeZone = event.Start.TimeZone
	}
	if out.End.TimeZone == "" {
		out.End.TimeZone = event.End.TimeZone
	}
	return out, nil
}

func (c *Creator) insertEvent(ctx context.Context, accessToken string, event WebhookEvent) (*gcal.Event, error) {
	clientCtx := context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
	client := oauth2.NewClient(clientCtx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}

	created, err := svc.Events.Insert("primary", &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.DateTime, TimeZone: event.Start.TimeZone},
		End:         &gcal.EventDateTime{DateTime: event.End.DateTime, TimeZone: event.End.TimeZone},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRequestFailed, err)
	}
	return created, nil
}
