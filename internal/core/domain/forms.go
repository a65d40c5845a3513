package domain

import "time"

// Write actions understood by the product source.
const (
	ActionGetProducts       = "getProducts"
	ActionSubmitContact     = "submitContact"
	ActionSubmitNewsletter  = "submitNewsletter"
	ActionSubmitCartInquiry = "submitCartInquiry"
)

type Customer struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"email_loose"`
	Phone   string `json:"phone" validate:"phone"`
	Message string `json:"message"`
}

type InquiryItem struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// An Inquiry is a cart submitted for a quotation.
type Inquiry struct {
	ID        string
	Customer  Customer
	Items     []InquiryItem
	Total     float64
	CreatedAt time.Time
}

type ContactMessage struct {
	ID        string
	Name      string `validate:"min=2"`
	Email     string `validate:"email_loose"`
	Phone     string `validate:"phone"`
	Subject   string `validate:"min=3"`
	Message   string `validate:"min=10"`
	CreatedAt time.Time
}

type NewsletterSignup struct {
	ID        string
	Email     string `validate:"email_loose"`
	CreatedAt time.Time
}
