package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	ListingCreated   Type = "listing.created"
	ReviewPosted     Type = "review.posted"
	InquirySubmitted Type = "inquiry.submitted"
)

type Event struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	ListingID string            `json:"listing_id"`
	Payload   map[string]string `json:"payload,omitempty"`
	At        time.Time         `json:"at"`
}

func New(t Type, listingID string, payload map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		ListingID: listingID,
		Payload:   payload,
		At:        time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event)
	Subscribe() <-chan Event
}

type inMemory struct{ ch chan Event }

// NewInMemory returns a buffered publisher. Publish never blocks; events are
// dropped once the buffer is full.
func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan Event, buffer)}
}

func (m *inMemory) Publish(_ context.Context, evt Event) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *inMemory) Subscribe() <-chan Event { return m.ch }

// Discard is a Publisher for callers that do not care about events.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

func (discard) Subscribe() <-chan Event { return nil }
