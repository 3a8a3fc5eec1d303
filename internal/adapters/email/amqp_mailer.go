package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig holds configuration for the RabbitMQ mail queue.
type AMQPConfig struct {
	URL   string
	Queue string
}

const defaultEmailQueue = "email.outbound"

// emailJob is the message body consumed by the mail worker.
type emailJob struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// amqpMailer hands emails to a durable queue; delivery happens in a separate worker.
type amqpMailer struct {
	url    string
	queue  string
	from   string
	logger *slog.Logger
	now    func() time.Time
}

func newAMQPMailer(config AMQPConfig, from string, logger *slog.Logger) *amqpMailer {
	queue := config.Queue
	if queue == "" {
		queue = defaultEmailQueue
	}
	return &amqpMailer{url: config.URL, queue: queue, from: from, logger: logger, now: time.Now}
}

func (m *amqpMailer) publishing(to, subject, html, text string) (amqp.Publishing, error) {
	body, err := json.Marshal(emailJob{From: m.from, To: to, Subject: subject, HTML: html, Text: text})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal email job: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    m.now().UTC(),
		Body:         body,
	}, nil
}

func (m *amqpMailer) Send(ctx context.Context, to, subject, html, text string) error {
	msg, err := m.publishing(to, subject, html, text)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(m.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(m.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.PublishWithContext(ctx, "", m.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	m.logger.DebugContext(ctx, "email queued", "queue", m.queue, "to", to)
	return nil
}
