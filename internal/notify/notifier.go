// Package notify delivers change notifications.
package notify

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks . Notifier

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies what changed.
type Kind string

const (
	KindVideo  Kind = "video"
	KindPuzzle Kind = "puzzle"
)

// Message is one notification. Recipient may be empty, in which case the
// notifier uses its configured default.
type Message struct {
	Kind      Kind
	Source    string
	Subject   string
	Body      string
	Link      string
	Recipient string
}

// Notifier delivers a message. Implementations do not retry.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi sends every message to all of its notifiers.
type Multi []Notifier

// Notify calls each notifier in order and joins their errors.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
