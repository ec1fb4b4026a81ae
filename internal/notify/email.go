package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EmailSender fala com uma API de e-mail no formato do Resend
// (POST {from, to, subject, html} com Bearer token).
type EmailSender struct {
	url   string
	token string
	from  string
	http  *http.Client
}

func NewEmailSender(url, token, from string) *EmailSender {
	return &EmailSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		from:  strings.TrimSpace(from),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *EmailSender) Send(ctx context.Context, msg SlotOpened) error {
	if s.url == "" {
		return errors.New("email api url not configured")
	}
	if strings.TrimSpace(msg.Email) == "" {
		return errors.New("recipient without email")
	}

	raw, err := json.Marshal(emailRequest{
		From:    s.from,
		To:      []string{msg.Email},
		Subject: Subject(msg),
		HTML:    Body(msg),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email api returned %d", resp.StatusCode)
	}
	return nil
}
