// Package notify turns domain events into host notifications on a small
// worker pool.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourorg/pg-finder/internal/events"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/metrics"
)

type Options struct {
	Inbox       string
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

type Dispatcher struct {
	pub    events.Publisher
	mailer Mailer
	opts   Options
	log    logger.Logger

	jobs  chan events.Event
	inFly sync.Map // event id -> struct{}
	wg    sync.WaitGroup
	done  chan struct{}
}

func NewDispatcher(pub events.Publisher, mailer Mailer, opts Options, log logger.Logger) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	return &Dispatcher{
		pub:    pub,
		mailer: mailer,
		opts:   opts,
		log:    log,
		jobs:   make(chan events.Event, opts.QueueSize),
		done:   make(chan struct{}),
	}
}

// Done is closed once Run has returned and every queued job was handled.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Run consumes events until ctx is cancelled, then drains queued jobs.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	sub := d.pub.Subscribe()
	for {
		select {
		case <-ctx.Done():
			close(d.jobs)
			d.wg.Wait()
			return
		case evt := <-sub:
			d.Enqueue(evt)
		}
	}
}

// Enqueue schedules evt once; an event already queued or running is ignored,
// and a full queue drops it.
func (d *Dispatcher) Enqueue(evt events.Event) {
	if _, exists := d.inFly.LoadOrStore(evt.ID, struct{}{}); exists {
		return
	}
	select {
	case d.jobs <- evt:
		metrics.NotificationsQueued.Inc()
	default:
		d.inFly.Delete(evt.ID)
		metrics.NotificationsSent.WithLabelValues(string(evt.Type), "dropped").Inc()
		d.log.Warn("notification queue full, dropping event", map[string]interface{}{
			"eventId": evt.ID,
			"type":    string(evt.Type),
		})
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for evt := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.SendTimeout)
		func() {
			defer func() {
				d.inFly.Delete(evt.ID)
				metrics.NotificationsQueued.Dec()
				cancel()
			}()
			d.handle(ctx, evt)
		}()
	}
}

func (d *Dispatcher) handle(ctx context.Context, evt events.Event) {
	log := d.log.WithFields(map[string]interface{}{
		"eventId":   evt.ID,
		"type":      string(evt.Type),
		"listingId": evt.ListingID,
	})

	msg, ok := d.message(evt)
	if !ok {
		log.Debug("event recorded", nil)
		metrics.NotificationsSent.WithLabelValues(string(evt.Type), "skipped").Inc()
		return
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).Error("notification failed", nil)
		metrics.NotificationsSent.WithLabelValues(string(evt.Type), "error").Inc()
		return
	}
	log.Info("notification sent", nil)
	metrics.NotificationsSent.WithLabelValues(string(evt.Type), "ok").Inc()
}

// message builds the email for evt. Only inquiries and reviews reach the
// inbox; listing.created is recorded but not mailed.
func (d *Dispatcher) message(evt events.Event) (Message, bool) {
	if d.opts.Inbox == "" {
		return Message{}, false
	}
	p := evt.Payload
	switch evt.Type {
	case events.InquirySubmitted:
		return Message{
			To:      d.opts.Inbox,
			ReplyTo: p["email"],
			Subject: fmt.Sprintf("New inquiry for %s", orDefault(p["title"], evt.ListingID)),
			Body: fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n\n%s\n\nListing: %s",
				p["name"], p["email"], p["phone"], p["message"], evt.ListingID),
		}, true
	case events.ReviewPosted:
		return Message{
			To:      d.opts.Inbox,
			Subject: fmt.Sprintf("New %s-star review for %s", p["rating"], orDefault(p["title"], evt.ListingID)),
			Body:    fmt.Sprintf("%s\n\nListing: %s", p["comment"], evt.ListingID),
		}, true
	default:
		return Message{}, false
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
