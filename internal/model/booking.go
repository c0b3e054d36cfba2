package model

import "time"

// Booking lifecycle values for bookings.booking_status.
const (
    BookingPending   = "PENDING"
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
)

// Payment lifecycle values for bookings.payment_status.
const (
    PaymentPending  = "PENDING"
    PaymentPaid     = "PAID"
    PaymentFailed   = "FAILED"
    PaymentRefunded = "REFUNDED"
)

var (
    bookingStatuses = map[string]bool{BookingPending: true, BookingConfirmed: true, BookingCancelled: true}
    paymentStatuses = map[string]bool{PaymentPending: true, PaymentPaid: true, PaymentFailed: true, PaymentRefunded: true}
)

func ValidBookingStatus(s string) bool { return bookingStatuses[s] }
func ValidPaymentStatus(s string) bool { return paymentStatuses[s] }

// Booking is a reservation of a tour for a date range.  TotalAmount is in
// minor currency units.
type Booking struct {
    ID              uint64    `json:"id"`
    UserID          uint64    `json:"user_id"`
    TourID          uint64    `json:"tour_id"`
    StartDate       time.Time `json:"start_date"`
    EndDate         time.Time `json:"end_date"`
    Adults          int       `json:"adults"`
    Children        int       `json:"children"`
    TotalAmount     int64     `json:"total_amount"`
    Currency        string    `json:"currency"`
    BookingStatus   string    `json:"booking_status"`
    PaymentStatus   string    `json:"payment_status"`
    SpecialRequests *string   `json:"special_requests,omitempty"`
    GatewayOrderID  *string   `json:"gateway_order_id,omitempty"`
    CreatedAt       time.Time `json:"created_at"`
    UpdatedAt       time.Time `json:"updated_at"`
}

// DetailsEditable reports whether dates, traveller counts and amount may
// still change: only while both statuses are PENDING.
func (b Booking) DetailsEditable() bool {
    return b.BookingStatus == BookingPending && b.PaymentStatus == PaymentPending
}

// Deletable follows the same rule as DetailsEditable.
func (b Booking) Deletable() bool { return b.DetailsEditable() }

// Payable reports whether a payment order may be opened for the booking.
func (b Booking) Payable() bool {
    if b.BookingStatus == BookingCancelled {
        return false
    }
    return b.PaymentStatus == PaymentPending || b.PaymentStatus == PaymentFailed
}

// CalculateTotal returns pricePerPerson × adults + pricePerPerson × 0.5 ×
// children in minor units.  The half-price child share rounds half up.
func CalculateTotal(pricePerPerson int64, adults, children int) int64 {
    return (2*pricePerPerson*int64(adults) + pricePerPerson*int64(children) + 1) / 2
}

// BookingDetail joins a booking with the rows admin and customer views show.
type BookingDetail struct {
    Booking
    TourTitle string   `json:"tour_title"`
    TourSlug  string   `json:"tour_slug"`
    UserName  string   `json:"user_name"`
    UserEmail string   `json:"user_email"`
    UserPhone *string  `json:"user_phone,omitempty"`
    Payment   *Payment `json:"payment,omitempty"`
}

// Payment is the 1:1 record of a verified gateway payment.
type Payment struct {
    ID                uint64    `json:"id"`
    BookingID         uint64    `json:"booking_id"`
    Provider          string    `json:"provider"`
    ProviderPaymentID string    `json:"provider_payment_id"`
    Amount            int64     `json:"amount"`
    Currency          string    `json:"currency"`
    Status            string    `json:"status"`
    CreatedAt         time.Time `json:"created_at"`
    UpdatedAt         time.Time `json:"updated_at"`
}

// DashboardStats feeds the admin dashboard.
type DashboardStats struct {
    TotalBookings   int64            `json:"total_bookings"`
    UpcomingTrips   int64            `json:"upcoming_trips"`
    TotalRevenue    int64            `json:"total_revenue"`
    ActiveTours     int64            `json:"active_tours"`
    ByBookingStatus map[string]int64 `json:"by_booking_status"`
    ByPaymentStatus map[string]int64 `json:"by_payment_status"`
    RecentBookings  []BookingDetail  `json:"recent_bookings"`
}
