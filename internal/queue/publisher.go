package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog/log"
)

// Publisher enqueues email jobs.  It dials per publish; notification volume
// is a few messages per booking.
type Publisher struct {
    url string
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PublishEmail publishes job to the email queue as a persistent message.
// Errors are logged and returned so the caller can fall back to sending
// directly.
func (p *Publisher) PublishEmail(ctx context.Context, job EmailJob) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    if err := declareEmailQueue(ch); err != nil {
        log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(job)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    job.ID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",             // default exchange
        EmailQueueName, // routing key = queue name
        false,          // mandatory
        false,          // immediate
        pub,
    ); err != nil {
        log.Warn().Err(err).Str("job_id", job.ID).Msg("rabbitmq: publish failed")
        return err
    }
    return nil
}

func declareEmailQueue(ch *amqp.Channel) error {
    _, err := ch.QueueDeclare(
        EmailQueueName, // name
        true,           // durable
        false,          // autoDelete
        false,          // exclusive
        false,          // noWait
        nil,            // args
    )
    return err
}
