package port

import (
	"context"
	"errors"
	"time"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

var ErrNotFound = errors.New("not found")

type ProductSource interface {
	FetchProducts(context.Context) (domain.ProductFeed, error)
}

type Submitter interface {
	SubmitInquiry(context.Context, domain.Inquiry) error
	SubmitContact(context.Context, domain.ContactMessage) error
	SubmitNewsletter(context.Context, domain.NewsletterSignup) error
}

// SessionStorage keeps small JSON documents per browser session.
// Get returns an error wrapping ErrNotFound for a missing key.
type SessionStorage interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Put(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}

type SessionPurger interface {
	PurgeSessions(ctx context.Context, before time.Time) (int, error)
}

type EventProducer interface {
	ProduceEvent(context.Context, domain.Event) error
}

type Mailer interface {
	SendInquiryConfirmation(context.Context, domain.Inquiry) error
}

// InfoPages serves the informational content pages.
type InfoPages interface {
	Page(slug string) (domain.InfoPage, error)
	SearchFAQ(query string) (domain.InfoPage, error)
}
