package mail_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/kiksniks/internal/adapter/mail"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type senderFunc func(m ...*gomail.Message) error

func (f senderFunc) DialAndSend(m ...*gomail.Message) error {
	return f(m...)
}

var inquiry = domain.Inquiry{
	ID: "inq-1",
	Customer: domain.Customer{
		Name:    "Juan <b>Dela Cruz</b>",
		Email:   "juan@example.com",
		Phone:   "09171234567",
		Message: "Do you ship to Cebu?",
	},
	Items: []domain.InquiryItem{
		{Name: "Dunk Low", Color: "Red", Size: "9", Quantity: 2, Price: 5495},
		{Name: "Trefoil Cap", Color: "Black", Quantity: 1, Price: 1295.5},
	},
	Total:     12285.5,
	CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
}

func newMailer(s mail.Sender) *mail.Mailer {
	return mail.New(mail.Config{
		Host: "localhost", Port: 2525,
		From: "nikkocapili.01@gmail.com", FromName: "KiksNiks",
	}, mail.SenderOpt(s))
}

func TestSendInquiryConfirmation(t *testing.T) {
	t.Run("Compose", func(t *testing.T) {
		var sent []*gomail.Message
		m := newMailer(senderFunc(func(ms ...*gomail.Message) error {
			sent = append(sent, ms...)
			return nil
		}))

		require.NoError(t, m.SendInquiryConfirmation(t.Context(), inquiry))
		require.Len(t, sent, 1)

		msg := sent[0]
		assert.Equal(t, []string{"juan@example.com"}, msg.GetHeader("To"))
		assert.Equal(t, []string{"We received your inquiry - KiksNiks"}, msg.GetHeader("Subject"))

		var raw bytes.Buffer
		_, err := msg.WriteTo(&raw)
		require.NoError(t, err)
		body := raw.String()
		assert.Contains(t, body, "inq-1")
		assert.Contains(t, body, "text/html")
		assert.Contains(t, body, "Juan &lt;b&gt;Dela Cruz&lt;/b&gt;")
	})

	t.Run("SendError", func(t *testing.T) {
		errSMTP := errors.New("535 authentication failed")
		m := newMailer(senderFunc(func(...*gomail.Message) error {
			return errSMTP
		}))
		assert.ErrorIs(t, m.SendInquiryConfirmation(t.Context(), inquiry), errSMTP)
	})

	t.Run("CanceledWhileSending", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		m := newMailer(senderFunc(func(...*gomail.Message) error {
			<-release
			return nil
		}))

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()
		err := m.SendInquiryConfirmation(ctx, inquiry)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("CanceledBefore", func(t *testing.T) {
		called := false
		m := newMailer(senderFunc(func(...*gomail.Message) error {
			called = true
			return nil
		}))
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		assert.ErrorIs(t, m.SendInquiryConfirmation(ctx, inquiry), context.Canceled)
		assert.False(t, called)
	})
}

func TestNopMailer(t *testing.T) {
	assert.NoError(t, mail.NopMailer{}.SendInquiryConfirmation(t.Context(), inquiry))
}
