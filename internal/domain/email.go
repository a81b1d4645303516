package domain

import "context"

// Message is one rendered email. At least one of HTML and Text is set.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers rendered emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TicketEmailData holds data for the registration ticket email.
type TicketEmailData struct {
	Email          string
	UserName       string
	RegistrationID string
	EventTitle     string
	EventDate      string
	TimeSlot       string
	VenueName      string
	VenueAddress   string
	Price          float64
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendTicket(ctx context.Context, data *TicketEmailData) error
}
