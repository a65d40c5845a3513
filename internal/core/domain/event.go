package domain

import "time"

type EventKind string

const (
	EventInquiry    EventKind = "inquiry"
	EventContact    EventKind = "contact"
	EventNewsletter EventKind = "newsletter"
)

// An Event records an accepted submission for downstream consumers.
type Event struct {
	ID        string
	Kind      EventKind
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	Items     []InquiryItem
	Total     float64
	CreatedAt time.Time
}

func InquiryEvent(in Inquiry) Event {
	return Event{
		ID:        in.ID,
		Kind:      EventInquiry,
		Name:      in.Customer.Name,
		Email:     in.Customer.Email,
		Phone:     in.Customer.Phone,
		Message:   in.Customer.Message,
		Items:     in.Items,
		Total:     in.Total,
		CreatedAt: in.CreatedAt,
	}
}

func ContactEvent(m ContactMessage) Event {
	return Event{
		ID:        m.ID,
		Kind:      EventContact,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func NewsletterEvent(s NewsletterSignup) Event {
	return Event{
		ID:        s.ID,
		Kind:      EventNewsletter,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
	}
}
