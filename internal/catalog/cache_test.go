package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

type countingStore struct {
	mu     sync.Mutex
	spaces map[string]domain.Space
	gets   int
}

func (s *countingStore) GetSpace(_ context.Context, id string) (domain.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	space, ok := s.spaces[id]
	if !ok {
		return domain.Space{}, domain.ErrSpaceNotFound
	}
	return space, nil
}

func TestCache_Space(t *testing.T) {
	t.Parallel()

	store := &countingStore{spaces: map[string]domain.Space{
		"space-1": {ID: "space-1", Name: "Open desk", Active: true},
	}}
	cache := NewCache(store)

	first, err := cache.Space(context.Background(), "space-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.Name != "Open desk" {
		t.Fatalf("unexpected space: %+v", first)
	}

	if _, err := cache.Space(context.Background(), "space-1"); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if store.gets != 1 {
		t.Fatalf("expected a single store read, got %d", store.gets)
	}
}

func TestCache_MissesAreNotCached(t *testing.T) {
	t.Parallel()

	store := &countingStore{spaces: map[string]domain.Space{}}
	cache := NewCache(store)

	if _, err := cache.Space(context.Background(), "space-1"); err != domain.ErrSpaceNotFound {
		t.Fatalf("expected ErrSpaceNotFound, got %v", err)
	}

	// The space appears later; the cache must pick it up.
	store.mu.Lock()
	store.spaces["space-1"] = domain.Space{ID: "space-1", Name: "New desk"}
	store.mu.Unlock()

	got, err := cache.Space(context.Background(), "space-1")
	if err != nil {
		t.Fatalf("expected no error after the space appeared, got %v", err)
	}
	if got.Name != "New desk" {
		t.Fatalf("unexpected space: %+v", got)
	}
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	store := &countingStore{spaces: map[string]domain.Space{
		"space-1": {ID: "space-1", Name: "Before"},
	}}
	cache := NewCache(store)

	if _, err := cache.Space(context.Background(), "space-1"); err != nil {
		t.Fatalf("first read: %v", err)
	}

	store.mu.Lock()
	store.spaces["space-1"] = domain.Space{ID: "space-1", Name: "After"}
	store.mu.Unlock()
	cache.Invalidate("space-1")

	got, err := cache.Space(context.Background(), "space-1")
	if err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}
	if got.Name != "After" {
		t.Fatalf("expected the refreshed space, got %+v", got)
	}
	if store.gets != 2 {
		t.Fatalf("expected two store reads, got %d", store.gets)
	}
}
