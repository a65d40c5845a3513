// Package mail sends the inquiry confirmation e-mail over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"text/template"

	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/internal/view"
	"gopkg.in/gomail.v2"
)

var (
	_ port.Mailer = (*Mailer)(nil)
	_ port.Mailer = NopMailer{}
)

const subject = "We received your inquiry - KiksNiks"

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// A Sender delivers composed messages. *gomail.Dialer is a Sender.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender   Sender
	from     string
	fromName string
}

type Option func(*Mailer)

// SenderOpt replaces the SMTP dialer.
func SenderOpt(s Sender) Option {
	return func(m *Mailer) {
		m.sender = s
	}
}

func New(cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		sender:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendInquiryConfirmation mails the customer a summary of the inquiry.
// The SMTP exchange cannot be interrupted: a canceled ctx only stops the
// wait for it.
func (m *Mailer) SendInquiryConfirmation(ctx context.Context, in domain.Inquiry) error {
	const op = "Mailer.SendInquiryConfirmation"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg, err := m.compose(in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.sender.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	slog.Info("confirmation sent", "op", op, "inquiryID", in.ID)
	return nil
}

type lineData struct {
	Name, Color, Size string
	Quantity          int
	Price             string
}

type mailData struct {
	Name    string
	ID      string
	Message string
	Lines   []lineData
	Total   string
}

func newMailData(in domain.Inquiry) mailData {
	d := mailData{
		Name:    in.Customer.Name,
		ID:      in.ID,
		Message: in.Customer.Message,
		Total:   view.Price(in.Total),
	}
	for _, it := range in.Items {
		d.Lines = append(d.Lines, lineData{
			Name:     it.Name,
			Color:    it.Color,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    view.Price(it.Price * float64(it.Quantity)),
		})
	}
	return d
}

func (m *Mailer) compose(in domain.Inquiry) (*gomail.Message, error) {
	data := newMailData(in)

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return nil, err
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", in.Customer.Email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text.String())
	msg.AddAlternative("text/html", html.String())
	return msg, nil
}

var textBody = template.Must(template.New("text").Parse(
	`Hi {{.Name}},

Thank you for your inquiry! Our team will get back to you within 24 hours.

Reference: {{.ID}}
{{range .Lines}}
- {{.Name}} ({{.Color}}{{if .Size}}, size {{.Size}}{{end}}) x{{.Quantity}}: {{.Price}}{{end}}

Total: {{.Total}}
{{if .Message}}
Your message:
{{.Message}}
{{end}}
KiksNiks
La Paz, Tarlac, Philippines
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<p>Hi {{.Name}},</p>
<p>Thank you for your inquiry! Our team will get back to you within 24 hours.</p>
<p>Reference: <strong>{{.ID}}</strong></p>
<table>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Color}}</td><td>{{.Size}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{.Total}}</strong></p>
{{if .Message}}<p>Your message:<br>{{.Message}}</p>{{end}}
<p>KiksNiks<br>La Paz, Tarlac, Philippines</p>
`))

// NopMailer only logs. It stands in when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) SendInquiryConfirmation(_ context.Context, in domain.Inquiry) error {
	slog.Debug("confirmation skipped", "op", "NopMailer.SendInquiryConfirmation",
		"inquiryID", in.ID,
	)
	return nil
}
