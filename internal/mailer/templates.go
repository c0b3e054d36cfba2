package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	KindWelcome             = "welcome"
	KindPasswordReset       = "password_reset"
	KindBookingConfirmation = "booking_confirmation"
	KindPaymentReceipt      = "payment_receipt"
	KindAdminBooking        = "admin_booking"
	KindCancellation        = "cancellation"
	KindContactNotice       = "contact_notice"
)

var subjects = map[string]string{
	KindWelcome:             "Welcome to %s",
	KindPasswordReset:       "Reset your %s password",
	KindBookingConfirmation: "Your %s booking is confirmed",
	KindPaymentReceipt:      "%s payment receipt",
	KindAdminBooking:        "%s: new paid booking",
	KindCancellation:        "Your %s booking was cancelled",
	KindContactNotice:       "%s: new contact message",
}

// BookingView is the booking data shown in booking emails.  Amount is
// already formatted.
type BookingView struct {
	ID              uint64
	TourTitle       string
	StartDate       string
	EndDate         string
	Adults          int
	Children        int
	Amount          string
	SpecialRequests string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	PaymentID       string
	RefundID        string
	WasPaid         bool
}

// View is the data passed to every template.
type View struct {
	Subject      string
	Brand        string
	SupportEmail string
	BaseURL      string

	Name    string
	Email   string
	Link    string
	Message string
	Booking BookingView
}

// Renderer holds one parsed template set per kind.
type Renderer struct {
	sets map[string]*template.Template
}

// NewRenderer parses the embedded templates.  It fails only if a template is
// malformed.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{sets: make(map[string]*template.Template, len(subjects))}
	for kind := range subjects {
		t, err := template.New(kind).ParseFS(templateFS,
			"templates/layout.html", "templates/booking_table.html", "templates/"+kind+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.sets[kind] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer for package init paths.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render builds the message for kind addressed to to.  v.Brand defaults to
// the sender name configured for the agency.
func (r *Renderer) Render(kind, to string, v View) (Message, error) {
	t, ok := r.sets[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown email kind %q", kind)
	}
	if v.Brand == "" {
		v.Brand = "GoFly Travel Agency"
	}
	v.Subject = fmt.Sprintf(subjects[kind], v.Brand)
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Message{
		Kind:    kind,
		To:      to,
		Subject: v.Subject,
		HTML:    buf.String(),
	}, nil
}
