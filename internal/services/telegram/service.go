// Package telegram sends batch summaries to a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fgeck/gomssql-backup/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		baseURL: "https://api.telegram.org",
	}
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// sendMessageRequest is the request body for Telegram sendMessage API.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendNotification sends a batch summary via Telegram.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
	result := &models.TelegramResult{}

	s.logger.Info().
		Str("chat_id", cfg.ChatID).
		Bool("success", msg.Success).
		Msg("sending Telegram notification")

	// Format message
	text := s.formatMessage(msg)

	// Build request
	reqBody := sendMessageRequest{
		ChatID:    cfg.ChatID,
		Text:      text,
		ParseMode: "HTML",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		result.Error = fmt.Errorf("failed to marshal request: %w", err)
		return result, nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, cfg.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		result.Error = fmt.Errorf("failed to create request: %w", err)
		return result, nil
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("failed to send request: %w", err)
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("telegram API returned status %d", resp.StatusCode)
		return result, nil
	}

	result.MessageSent = true
	s.logger.Info().Msg("Telegram notification sent successfully")

	return result, nil
}

func (s *Impl) formatMessage(msg models.TelegramMessage) string {
	var b bytes.Buffer

	succeeded, failed := countOutcomes(msg.Outcomes)

	switch {
	case msg.Success:
		b.WriteString("\u2705 <b>SQL Server Backup Successful</b>\n\n")
	case succeeded > 0:
		b.WriteString("\u26a0\ufe0f <b>SQL Server Backup Completed With Errors</b>\n\n")
	default:
		b.WriteString("\u274c <b>SQL Server Backup Failed</b>\n\n")
	}

	b.WriteString(fmt.Sprintf("\U0001f5a5 <b>Server:</b> %s\n", escapeHTML(msg.Server)))
	if msg.ProductVersion != "" {
		b.WriteString(fmt.Sprintf("\U0001f3f7 <b>Version:</b> %s (SQL Server %s)\n", escapeHTML(msg.ProductVersion), yearOrUnknown(msg.Year)))
	}
	b.WriteString(fmt.Sprintf("\U0001f4c1 <b>Folder:</b> %s\n", escapeHTML(msg.Folder)))
	b.WriteString(fmt.Sprintf("\u23f0 <b>Started:</b> %s\n", msg.StartTime.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("\u23f1 <b>Duration:</b> %s\n", msg.Duration.Round(time.Second)))

	if len(msg.Outcomes) > 0 {
		b.WriteString(fmt.Sprintf("\n<b>\U0001f4ca Databases (%d ok, %d failed):</b>\n", succeeded, failed))
		for _, o := range msg.Outcomes {
			if o.OK {
				b.WriteString(fmt.Sprintf("  \u2022 %s: <code>%s</code> (%s)\n", escapeHTML(o.Database), escapeHTML(o.File), o.Duration.Round(time.Second)))
			} else {
				b.WriteString(fmt.Sprintf("  \u2022 %s: FAILED <code>%s</code>\n", escapeHTML(o.Database), escapeHTML(o.Error)))
			}
		}
	}

	if msg.ErrorMessage != "" {
		b.WriteString("\n<b>\u26a0\ufe0f Error Details:</b>\n")
		b.WriteString(fmt.Sprintf("  \u2022 Failed step: %s\n", escapeHTML(msg.FailedStep)))
		b.WriteString(fmt.Sprintf("  \u2022 Error: <code>%s</code>\n", escapeHTML(msg.ErrorMessage)))
	}

	return b.String()
}

func countOutcomes(outcomes []models.BackupOutcome) (succeeded, failed int) {
	for _, o := range outcomes {
		if o.OK {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

func yearOrUnknown(year string) string {
	if year == "" {
		return "unknown"
	}
	return year
}

// escapeHTML escapes HTML special characters.
func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
