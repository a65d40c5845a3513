package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

type inquiryPayload struct {
	Action    string               `json:"action"`
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	Phone     string               `json:"phone"`
	Message   string               `json:"message"`
	CartItems []domain.InquiryItem `json:"cartItems"`
	Total     float64              `json:"total"`
	Timestamp string               `json:"timestamp"`
}

type contactPayload struct {
	Action    string `json:"action"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type newsletterPayload struct {
	Action    string `json:"action"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

func (c *Client) SubmitInquiry(ctx context.Context, in domain.Inquiry) error {
	const op = "Client.SubmitInquiry"

	items := in.Items
	if items == nil {
		items = []domain.InquiryItem{}
	}
	p := inquiryPayload{
		Action:    domain.ActionSubmitCartInquiry,
		Name:      in.Customer.Name,
		Email:     in.Customer.Email,
		Phone:     in.Customer.Phone,
		Message:   in.Customer.Message,
		CartItems: items,
		Total:     in.Total,
		Timestamp: timestamp(in.CreatedAt),
	}
	if err := c.post(ctx, p.Action, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) SubmitContact(ctx context.Context, m domain.ContactMessage) error {
	const op = "Client.SubmitContact"

	p := contactPayload{
		Action:    domain.ActionSubmitContact,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Message,
		Timestamp: timestamp(m.CreatedAt),
	}
	if err := c.post(ctx, p.Action, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) SubmitNewsletter(ctx context.Context, s domain.NewsletterSignup) error {
	const op = "Client.SubmitNewsletter"

	p := newsletterPayload{
		Action:    domain.ActionSubmitNewsletter,
		Email:     s.Email,
		Timestamp: timestamp(s.CreatedAt),
	}
	if err := c.post(ctx, p.Action, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// post sends one write action. Without a submit URL, or in mock mode, the
// action is only logged and reported as accepted.
func (c *Client) post(ctx context.Context, action string, payload any) error {
	const op = "Client.post"
	log := slog.With("op", op, "action", action)

	if c.cfg.UseMockData || strings.TrimSpace(c.cfg.SubmitURL) == "" {
		log.Info("submission accepted without a remote source")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.cfg.SubmitURL, bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s: %w: %s", op, ErrStatus, res.Status)
	}

	resBody, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%s: failed to read body: %w", op, err)
	}
	if err := checkAck(resBody); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("submission accepted")
	return nil
}

// checkAck rejects a JSON acknowledgement with "success": false. Other
// bodies are accepted as is.
func checkAck(body []byte) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "submission rejected"
		}
		return fmt.Errorf("%w: %s", ErrSource, msg)
	}
	return nil
}
