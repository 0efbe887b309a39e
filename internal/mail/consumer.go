// Package mail is the relay worker: it consumes the durable send-otp queue
// and delivers each job over SMTP.
package mail

import (
	"log/slog"

	"github.com/nats-io/nats.go"

	"chatapp/internal/queue"
)

// Consumer drains send-otp jobs from the queue. A failed send leaves the job
// unacked so the stream redelivers it.
type Consumer struct {
	q      *queue.JetStreamQueue
	sender *Sender
	log    *slog.Logger

	sub *nats.Subscription
}

func NewConsumer(q *queue.JetStreamQueue, sender *Sender, log *slog.Logger) *Consumer {
	return &Consumer{q: q, sender: sender, log: log}
}

// Start attaches the durable subscription and returns; delivery happens on
// NATS callback goroutines.
func (c *Consumer) Start() error {
	sub, err := c.q.Subscribe(func(mail queue.OTPMail) error {
		if err := c.sender.Send(mail.To, mail.Subject, mail.Body); err != nil {
			c.log.Error("mail: send failed", "to", mail.To, "err", err)
			return err
		}
		c.log.Info("mail: otp email sent", "to", mail.To)
		return nil
	})
	if err != nil {
		return err
	}
	c.sub = sub
	c.log.Info("mail: consumer started, listening for otp emails")
	return nil
}

func (c *Consumer) Stop() {
	if c.sub != nil {
		_ = c.sub.Drain()
	}
}
