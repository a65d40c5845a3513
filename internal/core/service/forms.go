package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/niksmo/kiksniks/internal/core/domain"
)

// SubmitInquiry sends the session cart for a quotation and clears it.
// The cart stays untouched when validation or submission fails.
func (s *Storefront) SubmitInquiry(
	ctx context.Context, sessionID string, customer domain.Customer,
) (domain.Inquiry, error) {
	const op = "Storefront.SubmitInquiry"

	customer = trimCustomer(customer)
	if err := s.validator.Struct(customer); err != nil {
		return domain.Inquiry{}, fmt.Errorf("%s: %w", op, err)
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.Inquiry{}, fmt.Errorf("%s: %w", op, err)
	}
	if c.IsEmpty() {
		return domain.Inquiry{}, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	total, _ := c.Total().Float64()
	inquiry := domain.Inquiry{
		ID:        newID(),
		Customer:  customer,
		Items:     c.InquiryItems(),
		Total:     total,
		CreatedAt: s.now(),
	}

	if err := s.submit(ctx, func(ctx context.Context) error {
		return s.submitter.SubmitInquiry(ctx, inquiry)
	}); err != nil {
		return domain.Inquiry{}, fmt.Errorf("%s: %w", op, err)
	}

	// The inquiry is accepted: the rest must not depend on the client
	// still waiting.
	ctx = context.WithoutCancel(ctx)

	c.Clear()
	if err := s.saveJSON(ctx, sessionID, KeyCart, c.Lines()); err != nil {
		return inquiry, fmt.Errorf("%s: %w", op, err)
	}

	s.produce(ctx, domain.InquiryEvent(inquiry))
	s.sendConfirmation(ctx, inquiry)
	return inquiry, nil
}

func (s *Storefront) SubmitContact(
	ctx context.Context, m domain.ContactMessage,
) (domain.ContactMessage, error) {
	const op = "Storefront.SubmitContact"

	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	if err := s.validator.Struct(m); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("%s: %w", op, err)
	}

	m.ID = newID()
	m.CreatedAt = s.now()
	if err := s.submit(ctx, func(ctx context.Context) error {
		return s.submitter.SubmitContact(ctx, m)
	}); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("%s: %w", op, err)
	}

	s.produce(ctx, domain.ContactEvent(m))
	return m, nil
}

func (s *Storefront) SubscribeNewsletter(
	ctx context.Context, email string,
) (domain.NewsletterSignup, error) {
	const op = "Storefront.SubscribeNewsletter"

	signup := domain.NewsletterSignup{Email: strings.TrimSpace(email)}
	if err := s.validator.Struct(signup); err != nil {
		return domain.NewsletterSignup{}, fmt.Errorf("%s: %w", op, err)
	}

	signup.ID = newID()
	signup.CreatedAt = s.now()
	if err := s.submit(ctx, func(ctx context.Context) error {
		return s.submitter.SubmitNewsletter(ctx, signup)
	}); err != nil {
		return domain.NewsletterSignup{}, fmt.Errorf("%s: %w", op, err)
	}

	s.produce(ctx, domain.NewsletterEvent(signup))
	return signup, nil
}

func (s *Storefront) submit(
	ctx context.Context, fn func(context.Context) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()
	return fn(ctx)
}

// produce publishes e. Failures are logged only: the submission itself
// has already been accepted.
func (s *Storefront) produce(ctx context.Context, e domain.Event) {
	const op = "Storefront.produce"

	if s.events == nil {
		return
	}
	if err := s.events.ProduceEvent(ctx, e); err != nil {
		slog.Error("failed to produce event",
			"op", op, "kind", e.Kind, "eventID", e.ID, "err", err,
		)
	}
}

func (s *Storefront) sendConfirmation(ctx context.Context, in domain.Inquiry) {
	const op = "Storefront.sendConfirmation"

	if s.mailer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()
	if err := s.mailer.SendInquiryConfirmation(ctx, in); err != nil {
		slog.Error("failed to send confirmation",
			"op", op, "inquiryID", in.ID, "err", err,
		)
	}
}

func trimCustomer(c domain.Customer) domain.Customer {
	return domain.Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Message: strings.TrimSpace(c.Message),
	}
}
