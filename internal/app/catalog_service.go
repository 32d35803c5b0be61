package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hlafethi/coworkmy-booking/internal/clock"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

type SpaceRepository interface {
	CreateSpace(ctx context.Context, space domain.Space) error
	UpdateSpace(ctx context.Context, space domain.Space) error
	GetSpace(ctx context.Context, id string) (domain.Space, error)
	ListSpaces(ctx context.Context) ([]domain.Space, error)
}

// SpaceInvalidator evicts a space from read caches after a catalog write,
// so the reservation path sees the update on its next lookup.
type SpaceInvalidator interface {
	Invalidate(id string)
}

// CatalogService manages the space reference data the reservation engine
// books against.
type CatalogService struct {
	repo  SpaceRepository
	cache SpaceInvalidator
	clock clock.Clock
}

func NewCatalogService(repo SpaceRepository, cache SpaceInvalidator, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		clock: clk,
	}
}

var (
	errSpaceNameRequired = errors.New("space name required")
	errCurrencyRequired  = errors.New("currency required")
	errInvalidCapacity   = errors.New("capacity must be positive")
	errTiersRequired     = errors.New("at least one pricing tier required")
	errInvalidTier       = errors.New("invalid pricing tier")
)

type CreateSpaceInput struct {
	Name         string
	Capacity     int
	Currency     string
	CancelNotice time.Duration
	Tiers        []domain.PricingTier
}

func (s *CatalogService) CreateSpace(ctx context.Context, in CreateSpaceInput) (domain.Space, error) {
	if in.Name == "" {
		return domain.Space{}, errSpaceNameRequired
	}
	if in.Currency == "" {
		return domain.Space{}, errCurrencyRequired
	}
	if in.Capacity <= 0 {
		return domain.Space{}, errInvalidCapacity
	}
	if len(in.Tiers) == 0 {
		return domain.Space{}, errTiersRequired
	}
	for _, tier := range in.Tiers {
		if !domain.KnownTierKind(tier.Kind) || tier.Price <= 0 || tier.Label == "" {
			return domain.Space{}, errInvalidTier
		}
	}
	notice := in.CancelNotice
	if notice < 0 {
		notice = 0
	}

	space := domain.Space{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Capacity:     in.Capacity,
		Currency:     in.Currency,
		Active:       true,
		CancelNotice: notice,
		Tiers:        in.Tiers,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repo.CreateSpace(ctx, space); err != nil {
		return domain.Space{}, err
	}
	return space, nil
}

type UpdateSpaceInput struct {
	Name         string
	Capacity     int
	Active       bool
	CancelNotice time.Duration
}

// UpdateSpace changes a space's mutable attributes. Pricing tiers and
// currency are fixed at creation; deactivating a space stops new holds
// without touching existing reservations.
func (s *CatalogService) UpdateSpace(ctx context.Context, id string, in UpdateSpaceInput) (domain.Space, error) {
	if id == "" {
		return domain.Space{}, domain.ErrInvalidID
	}
	if in.Name == "" {
		return domain.Space{}, errSpaceNameRequired
	}
	if in.Capacity <= 0 {
		return domain.Space{}, errInvalidCapacity
	}
	notice := in.CancelNotice
	if notice < 0 {
		notice = 0
	}

	space, err := s.repo.GetSpace(ctx, id)
	if err != nil {
		return domain.Space{}, err
	}
	space.Name = in.Name
	space.Capacity = in.Capacity
	space.Active = in.Active
	space.CancelNotice = notice

	if err := s.repo.UpdateSpace(ctx, space); err != nil {
		return domain.Space{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(id)
	}
	return space, nil
}

func (s *CatalogService) ListSpaces(ctx context.Context) ([]domain.Space, error) {
	return s.repo.ListSpaces(ctx)
}

func (s *CatalogService) GetSpace(ctx context.Context, id string) (domain.Space, error) {
	if id == "" {
		return domain.Space{}, domain.ErrInvalidID
	}
	return s.repo.GetSpace(ctx, id)
}

// IsCatalogValidationError reports whether err is one of the catalog's
// input validation failures.
func IsCatalogValidationError(err error) bool {
	switch {
	case errors.Is(err, errSpaceNameRequired),
		errors.Is(err, errCurrencyRequired),
		errors.Is(err, errInvalidCapacity),
		errors.Is(err, errTiersRequired),
		errors.Is(err, errInvalidTier):
		return true
	}
	return false
}
