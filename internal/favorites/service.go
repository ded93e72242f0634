package favorites

import (
	"context"
	"errors"
	"sync"

	"github.com/yourorg/pg-finder/internal/metrics"
)

var ErrNoUser = errors.New("favorites: user id required")

// Service applies wishlist edits. Every change is written through to the
// repository before returning.
type Service struct {
	repo Repository
	mu   sync.Mutex
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID string) (Set, error) {
	if userID == "" {
		return Set{}, ErrNoUser
	}
	set, err := s.repo.Load(ctx, userID)
	record("load", err)
	return set, err
}

func (s *Service) Contains(ctx context.Context, userID, listingID string) (bool, error) {
	set, err := s.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Contains(listingID), nil
}

func (s *Service) Add(ctx context.Context, userID, listingID string) (Set, error) {
	return s.update(ctx, "add", userID, func(set Set) Set { return set.With(listingID) })
}

func (s *Service) Remove(ctx context.Context, userID, listingID string) (Set, error) {
	return s.update(ctx, "remove", userID, func(set Set) Set { return set.Without(listingID) })
}

// Toggle adds listingID when absent and removes it otherwise. added reports
// which of the two happened.
func (s *Service) Toggle(ctx context.Context, userID, listingID string) (set Set, added bool, err error) {
	set, err = s.update(ctx, "toggle", userID, func(cur Set) Set {
		if cur.Contains(listingID) {
			return cur.Without(listingID)
		}
		added = true
		return cur.With(listingID)
	})
	return set, added, err
}

func (s *Service) update(ctx context.Context, op, userID string, fn func(Set) Set) (Set, error) {
	if userID == "" {
		return Set{}, ErrNoUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.repo.Load(ctx, userID)
	if err != nil {
		record(op, err)
		return Set{}, err
	}
	next := fn(cur)
	err = s.repo.Save(ctx, userID, next)
	record(op, err)
	if err != nil {
		return cur, err
	}
	return next, nil
}

func record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.FavoritesOps.WithLabelValues(op, outcome).Inc()
}
