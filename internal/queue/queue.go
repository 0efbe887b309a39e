// Package queue carries one-way notification jobs between services over a
// durable NATS JetStream queue. Publishing is fire-and-forget from the
// caller's perspective; durability and redelivery live in the stream.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	StreamName     = "MAIL"
	SubjectSendOTP = "mail.send-otp"
	DurableSendOTP = "mailworker-send-otp"
)

// OTPMail is the payload of a send-otp job.
type OTPMail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Publisher enqueues notification jobs. Satisfied by *JetStreamQueue;
// services depend on this interface so tests can swap in a recorder.
type Publisher interface {
	PublishOTPMail(ctx context.Context, mail OTPMail) error
}

// JetStreamQueue is the NATS-backed queue shared by the API server
// (publisher) and the mail worker (consumer).
type JetStreamQueue struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Connect dials NATS and ensures the mail stream exists.
func Connect(natsURL string) (*JetStreamQueue, error) {
	nc, err := nats.Connect(natsURL, nats.Name("chatapp"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"mail.>"},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		nc.Close()
		return nil, fmt.Errorf("ensure mail stream: %w", err)
	}

	return &JetStreamQueue{nc: nc, js: js}, nil
}

func (q *JetStreamQueue) PublishOTPMail(ctx context.Context, mail OTPMail) error {
	data, err := json.Marshal(mail)
	if err != nil {
		return fmt.Errorf("marshal otp mail: %w", err)
	}
	if _, err := q.js.Publish(SubjectSendOTP, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish otp mail: %w", err)
	}
	return nil
}

// Subscribe attaches a durable consumer for send-otp jobs. The handler is
// invoked once per job; returning an error leaves the job unacked for
// redelivery.
func (q *JetStreamQueue) Subscribe(handler func(OTPMail) error) (*nats.Subscription, error) {
	return q.js.Subscribe(SubjectSendOTP, func(msg *nats.Msg) {
		var mail OTPMail
		if err := json.Unmarshal(msg.Data, &mail); err != nil {
			// Malformed jobs are acked away; redelivery cannot fix them.
			_ = msg.Ack()
			return
		}
		if err := handler(mail); err != nil {
			return
		}
		_ = msg.Ack()
	}, nats.Durable(DurableSendOTP), nats.ManualAck())
}

func (q *JetStreamQueue) Close() {
	q.nc.Drain()
}
