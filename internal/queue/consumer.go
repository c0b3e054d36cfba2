package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/travel-agency-booking/internal/mailer"
    "github.com/iliyamo/travel-agency-booking/internal/metrics"
)

// Consumer delivers queued emails through a mailer.Sender.
type Consumer struct {
    url    string
    sender mailer.Sender
}

func NewConsumer(url string, sender mailer.Sender) *Consumer {
    if sender == nil {
        panic("queue: nil sender")
    }
    return &Consumer{url: url, sender: sender}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures trigger a reconnect with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("email-consumer: failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("email-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        log.Warn().Err(err).Msg("email-consumer: set QoS failed")
    }
    if err := declareEmailQueue(ch); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    log.Info().Str("queue", EmailQueueName).Msg("email-consumer: consuming")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(ctx, d.Body); err != nil {
                log.Error().Err(err).Str("message_id", d.MessageId).Msg("email-consumer: delivery failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one job and sends it.  A malformed body or a send failure
// is returned to the caller.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var job EmailJob
    if err := json.Unmarshal(body, &job); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if job.Message.To == "" {
        return errors.New("email job without recipient")
    }
    sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
    defer cancel()
    if err := c.sender.Send(sendCtx, job.Message); err != nil {
        metrics.Notifications.WithLabelValues(job.Message.Kind, "failed").Inc()
        return err
    }
    metrics.Notifications.WithLabelValues(job.Message.Kind, "sent").Inc()
    log.Info().Str("kind", job.Message.Kind).Uint64("booking_id", job.BookingID).Msg("email-consumer: sent")
    return nil
}
