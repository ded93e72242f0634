package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_PublishIsNonBlocking(t *testing.T) {
	pub := NewInMemory(1)
	first := New(ListingCreated, "l1", nil)
	pub.Publish(context.Background(), first)
	pub.Publish(context.Background(), New(ListingCreated, "l2", nil)) // dropped

	got := <-pub.Subscribe()
	assert.Equal(t, first.ID, got.ID)
	select {
	case evt := <-pub.Subscribe():
		t.Fatalf("unexpected event %v", evt)
	default:
	}
}

func TestNew_AssignsIDAndTime(t *testing.T) {
	a := New(InquirySubmitted, "l1", map[string]string{"name": "Asha"})
	b := New(InquirySubmitted, "l1", nil)
	require.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.At.IsZero())
	assert.Equal(t, "Asha", a.Payload["name"])
}
