// Package services – PromotionService
//
// This file implements the PromotionService, which owns the query and
// lifecycle rules for promotions: deterministic filter-priority selection for
// list queries, the inclusive activation-window predicate, payload validation
// on the write paths, and the idempotent deactivation transition. The
// reference date ("today") is injectable so activation logic stays
// deterministic under test.
//
// Service-level errors (e.g., ErrPromotionNotFound) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-promotions-service/internal/domain"
	"github.com/tbourn/go-promotions-service/internal/utils"
)

// PromotionRepo defines the repository contract required by PromotionService.
// Implementations are responsible for persistence of promotion records.
type PromotionRepo interface {
	// CreatePromotion inserts a new row, assigning id and timestamps.
	CreatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error

	// GetPromotion fetches a promotion by id.
	GetPromotion(ctx context.Context, db *gorm.DB, id int) (*domain.Promotion, error)

	// ListPromotions returns all promotions in storage order.
	ListPromotions(ctx context.Context, db *gorm.DB) ([]domain.Promotion, error)

	// ListByName returns exact (case-sensitive) name matches.
	ListByName(ctx context.Context, db *gorm.DB, name string) ([]domain.Promotion, error)

	// ListByProductID returns promotions tied to a product.
	ListByProductID(ctx context.Context, db *gorm.DB, productID int) ([]domain.Promotion, error)

	// ListByType returns exact promotion_type matches.
	ListByType(ctx context.Context, db *gorm.DB, promotionType string) ([]domain.Promotion, error)

	// ListActiveOn returns promotions whose inclusive window contains day.
	ListActiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error)

	// ListInactiveOn returns the complement of ListActiveOn for day.
	ListInactiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error)

	// UpdatePromotion overwrites mutable fields and refreshes last_updated.
	UpdatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error

	// DeactivatePromotion clamps end_date to day-1 transactionally.
	DeactivatePromotion(ctx context.Context, db *gorm.DB, id int, day domain.Date) (*domain.Promotion, error)

	// DeletePromotion removes a row; missing ids are a no-op.
	DeletePromotion(ctx context.Context, db *gorm.DB, id int) error
}

// ListFilters carries the optional query parameters of the list operation.
// A nil field means the parameter was absent from the request; a non-nil
// field holds its raw string value. Exactly one filter is applied, selected
// by fixed priority: id > active > name > product_id > promotion_type; with
// no filter present, all records are returned.
type ListFilters struct {
	ID            *string
	Active        *string
	Name          *string
	ProductID     *string
	PromotionType *string
}

// PromotionService provides promotion-level operations: filtered listing,
// single-record lookup, create, full-replace update, deactivation, and
// delete. It holds no state between calls; every operation reads current
// state, computes, and writes back.
type PromotionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the promotion repository used by this service.
	Repo PromotionRepo

	// Now supplies the reference instant for "today". It defaults to
	// time.Now and is overridable for tests and scheduling.
	Now func() time.Time
}

// NewPromotionService constructs a PromotionService with the real clock.
func NewPromotionService(db *gorm.DB, r PromotionRepo) *PromotionService {
	return &PromotionService{
		DB:   db,
		Repo: r,
		Now:  time.Now,
	}
}

// today returns the current reference date from the injected clock.
func (s *PromotionService) today() domain.Date {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return domain.DateOf(now())
}

// List resolves the supplied filters to at most one and returns the matching
// promotions in storage order. Lower-priority parameters present alongside a
// higher one are silently ignored.
//
// Unparseable id and product_id filters yield an empty result rather than an
// error: the query asked for a record that cannot exist. The active filter
// is stricter and returns ErrInvalidActiveFilter for unknown literals.
func (s *PromotionService) List(ctx context.Context, f ListFilters) ([]domain.Promotion, error) {
	switch {
	case f.ID != nil:
		id, ok := utils.AtoiStrict(*f.ID)
		if !ok {
			return []domain.Promotion{}, nil
		}
		p, err := s.Repo.GetPromotion(ctx, s.DB, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []domain.Promotion{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.Promotion{*p}, nil

	case f.Active != nil:
		active, ok := utils.ParseBoolStrict(*f.Active)
		if !ok {
			return nil, ErrInvalidActiveFilter
		}
		if active {
			return s.ActiveOn(ctx, s.today())
		}
		return nonNil(s.Repo.ListInactiveOn(ctx, s.DB, s.today()))

	case f.Name != nil:
		return nonNil(s.Repo.ListByName(ctx, s.DB, strings.TrimSpace(*f.Name)))

	case f.ProductID != nil:
		pid, ok := utils.AtoiStrict(*f.ProductID)
		if !ok {
			return []domain.Promotion{}, nil
		}
		return nonNil(s.Repo.ListByProductID(ctx, s.DB, pid))

	case f.PromotionType != nil:
		return nonNil(s.Repo.ListByType(ctx, s.DB, strings.TrimSpace(*f.PromotionType)))

	default:
		return nonNil(s.Repo.ListPromotions(ctx, s.DB))
	}
}

// ActiveOn returns the promotions whose inclusive window contains day.
// Pure read; order follows storage order.
func (s *PromotionService) ActiveOn(ctx context.Context, day domain.Date) ([]domain.Promotion, error) {
	return nonNil(s.Repo.ListActiveOn(ctx, s.DB, day))
}

// Get returns a single promotion by id, or ErrPromotionNotFound.
func (s *PromotionService) Get(ctx context.Context, id int) (*domain.Promotion, error) {
	p, err := s.Repo.GetPromotion(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create validates the raw payload and persists a new promotion. The id and
// audit timestamps are assigned by the write path; client-supplied values
// for them are ignored. Validation failures carry *domain.ValidationError.
func (s *PromotionService) Create(ctx context.Context, data map[string]any) (*domain.Promotion, error) {
	p, err := domain.DeserializePromotion(data)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreatePromotion(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update performs a full replace of the promotion identified by id.
//
// If the payload carries an explicit id that differs from the target, the
// call fails with ErrIDMismatch before any persistence access. A missing
// record fails with ErrPromotionNotFound; invalid fields with
// *domain.ValidationError. On success the updated record is returned with a
// refreshed last_updated.
func (s *PromotionService) Update(ctx context.Context, id int, data map[string]any) (*domain.Promotion, error) {
	if raw, ok := data["id"]; ok && raw != nil {
		bodyID, ok := domain.IntValue(raw)
		if !ok || bodyID != id {
			return nil, ErrIDMismatch
		}
	}

	existing, err := s.Repo.GetPromotion(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, err
	}

	p, err := domain.DeserializePromotion(data)
	if err != nil {
		return nil, err
	}
	p.ID = id // path id takes precedence; the id is immutable
	p.CreatedAt = existing.CreatedAt
	if err := s.Repo.UpdatePromotion(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate forces the promotion out of its active window as of today by
// clamping end_date to min(end_date, today-1). It never extends an earlier
// end_date and is idempotent within a day. The only business failure is
// ErrPromotionNotFound.
func (s *PromotionService) Deactivate(ctx context.Context, id int) (*domain.Promotion, error) {
	p, err := s.Repo.DeactivatePromotion(ctx, s.DB, id, s.today())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPromotionNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a promotion permanently. A missing id is treated as
// success so the operation is idempotent.
func (s *PromotionService) Delete(ctx context.Context, id int) error {
	return s.Repo.DeletePromotion(ctx, s.DB, id)
}

// nonNil normalizes a repo result so callers always see an allocated slice;
// the list endpoint must serialize as a JSON array even when empty.
func nonNil(items []domain.Promotion, err error) ([]domain.Promotion, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Promotion{}
	}
	return items, nil
}
