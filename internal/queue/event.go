// Package queue moves outbound email through RabbitMQ so request handlers
// never wait on the SMTP relay.
package queue

import (
    "time"

    "github.com/iliyamo/travel-agency-booking/internal/mailer"
)

// EmailQueueName is the durable queue holding rendered emails.
const EmailQueueName = "notifications.email"

// EmailJob is one rendered email waiting for delivery.  The message is
// rendered by the producer, so the consumer only needs SMTP access.
type EmailJob struct {
    ID        string         `json:"id"`
    Message   mailer.Message `json:"message"`
    BookingID uint64         `json:"booking_id,omitempty"`
    CreatedAt time.Time      `json:"created_at"`
}
