package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rs/zerolog/log"
)

const defaultResendURL = "https://api.resend.com/emails"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// Mailer sends operator alerts through Resend.
type Mailer struct {
	apiKey     string
	from       string
	recipients []string
	endpoint   string
	client     *http.Client
}

// NewMailerFromConfig reads RESEND_API_KEY, RESEND_FROM_EMAIL and the
// comma separated OPS_ALERT_EMAILS. It returns nil when any is missing, and
// a nil Mailer drops alerts.
func NewMailerFromConfig(cfg map[string]string) *Mailer {
	apiKey := config.GetString(cfg, "RESEND_API_KEY", "")
	from := config.GetString(cfg, "RESEND_FROM_EMAIL", "")
	recipients := config.GetStrings(cfg, "OPS_ALERT_EMAILS", nil)
	if apiKey == "" || from == "" || len(recipients) == 0 {
		log.Warn().Msg("Resend not configured, operator alerts disabled")
		return nil
	}
	return NewMailer(apiKey, from, recipients, defaultResendURL)
}

func NewMailer(apiKey, from string, recipients []string, endpoint string) *Mailer {
	return &Mailer{
		apiKey:     apiKey,
		from:       from,
		recipients: recipients,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Alert mails subject and an HTML body to the operator list.
func (m *Mailer) Alert(ctx context.Context, subject, body string) error {
	if m == nil {
		return nil
	}
	return m.SendEmail(ctx, subject, body, m.recipients)
}

// SendEmail sends an email using the Resend API
func (m *Mailer) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	payload := ResendEmailRequest{
		From:    m.from,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}

	return nil
}
