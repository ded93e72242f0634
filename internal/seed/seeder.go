package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/pg-finder/internal/events"
	"github.com/yourorg/pg-finder/internal/listing"
	"github.com/yourorg/pg-finder/internal/logger"
)

// Writer is the store operation the seeder needs. InsertListing upserts on id.
type Writer interface {
	InsertListing(ctx context.Context, l listing.Listing) (listing.Listing, error)
}

type Config struct {
	OwnerID  string
	Interval time.Duration // 0 runs once
}

type Seeder struct {
	Store  Writer
	Pub    events.Publisher
	Logger logger.Logger
	Config Config
}

func (s *Seeder) validate() error {
	if s == nil {
		return errors.New("nil seeder")
	}
	if s.Store == nil {
		return errors.New("seeder requires a store")
	}
	if s.Pub == nil {
		s.Pub = events.Discard
	}
	if s.Logger == nil {
		s.Logger = logger.NewNoOpLogger()
	}
	return nil
}

// Run seeds once, then again on every Interval tick until ctx is cancelled.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.validate(); err != nil {
		return err
	}
	if s.Config.Interval <= 0 {
		_, err := s.RunOnce(ctx)
		return err
	}
	ticker := time.NewTicker(s.Config.Interval)
	defer ticker.Stop()
	s.Logger.Info("seeder starting", map[string]interface{}{"interval": s.Config.Interval.String()})
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.Logger.WithError(err).Error("seeder initial run failed", nil)
	}
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("seeder stopping", nil)
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.Logger.WithError(err).Error("seeder iteration failed", nil)
			}
		}
	}
}

// RunOnce upserts every sample listing and returns how many were written.
// Individual failures are joined; a cancelled context stops early.
func (s *Seeder) RunOnce(ctx context.Context) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	var joined error
	written := 0
	for _, l := range Listings(s.Config.OwnerID) {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		saved, err := s.Store.InsertListing(ctx, l)
		if err != nil {
			joined = errors.Join(joined, fmt.Errorf("listing %s: %w", l.Title, err))
			continue
		}
		written++
		s.Pub.Publish(ctx, events.New(events.ListingCreated, saved.ID, map[string]string{
			"title":    saved.Title,
			"location": saved.Location,
		}))
	}
	s.Logger.Info("sample listings seeded", map[string]interface{}{"written": written, "total": len(rows)})
	return written, joined
}
