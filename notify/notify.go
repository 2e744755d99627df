// Package notify defines the outbound message contract used by the account
// engine for verification links and recovery codes, plus the HTML templates
// rendered into those messages. Implementations deliver mail; the engine
// never talks to an SMTP server or mail API directly.
package notify

import (
	"context"
	"log"
)

// Message is a single outbound notification.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages. Implementations must be safe for concurrent
// use; the engine may send from multiple goroutines.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Func adapts a plain function to the [Notifier] interface.
type Func func(ctx context.Context, msg Message) error

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f Func) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// NoOp is a [Notifier] that silently discards all messages.
type NoOp struct{}

// Send describes the send operation and its observable behavior.
//
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOp) Send(context.Context, Message) error { return nil }

// LogNotifier writes message recipients and subjects to the standard logger.
// Useful in development; the body is not logged.
type LogNotifier struct{}

// Send describes the send operation and its observable behavior.
//
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Printf("notify: to=%s subject=%q", msg.To, msg.Subject)
	return nil
}
