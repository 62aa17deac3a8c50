// Package repo implements the data persistence layer for promotions,
// backed by GORM. This file provides repository functions for the Promotion
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Filter selection and activation rules
// live in services.PromotionService.
//
// Error semantics:
//   - When a promotion is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// List results are returned in storage order (ascending primary key); no
// separate sorting is applied.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-promotions-service/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePromotion inserts a new promotion row. The id is assigned by the
// database and any caller-supplied id is discarded; CreatedAt and
// LastUpdated are stamped here, never taken from the payload.
//
// On success the passed promotion carries its assigned id and timestamps.
func CreatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error {
	now := time.Now().UTC()
	p.ID = 0
	p.CreatedAt = now
	p.LastUpdated = now
	return db.WithContext(ctx).Create(p).Error
}

// GetPromotion fetches a single promotion by id. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is
// returned.
func GetPromotion(ctx context.Context, db *gorm.DB, id int) (*domain.Promotion, error) {
	var p domain.Promotion
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPromotions returns all promotions in storage order. It returns an
// empty slice when the table is empty.
func ListPromotions(ctx context.Context, db *gorm.DB) ([]domain.Promotion, error) {
	var out []domain.Promotion
	err := db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

// ListByName returns all promotions whose name matches exactly
// (case-sensitive).
func ListByName(ctx context.Context, db *gorm.DB, name string) ([]domain.Promotion, error) {
	var out []domain.Promotion
	err := db.WithContext(ctx).Where("name = ?", name).Order("id").Find(&out).Error
	return out, err
}

// ListByProductID returns all promotions tied to the given product.
func ListByProductID(ctx context.Context, db *gorm.DB, productID int) ([]domain.Promotion, error) {
	var out []domain.Promotion
	err := db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&out).Error
	return out, err
}

// ListByType returns all promotions whose promotion_type matches exactly.
func ListByType(ctx context.Context, db *gorm.DB, promotionType string) ([]domain.Promotion, error) {
	var out []domain.Promotion
	err := db.WithContext(ctx).Where("promotion_type = ?", promotionType).Order("id").Find(&out).Error
	return out, err
}

// ListActiveOn returns the promotions whose window contains day:
// start_date <= day <= end_date, inclusive on both ends.
func ListActiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error) {
	var out []domain.Promotion
	err := db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("id").
		Find(&out).Error
	return out, err
}

// ListInactiveOn returns the complement of ListActiveOn for day:
// promotions that have not started yet or have already ended.
func ListInactiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error) {
	var out []domain.Promotion
	err := db.WithContext(ctx).
		Where("start_date > ? OR end_date < ?", day, day).
		Order("id").
		Find(&out).Error
	return out, err
}

// UpdatePromotion overwrites all mutable fields of the promotion identified
// by p.ID and refreshes last_updated. CreatedAt is preserved; the id is
// immutable. If the record does not exist, ErrNotFound is returned.
func UpdatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error {
	p.LastUpdated = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Promotion{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":           p.Name,
			"promotion_type": p.PromotionType,
			"value":          p.Value,
			"product_id":     p.ProductID,
			"start_date":     p.StartDate,
			"end_date":       p.EndDate,
			"last_updated":   p.LastUpdated,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivatePromotion clamps the promotion's end_date to the day before the
// given reference date: end_date' = min(end_date, day-1). The read-compute-
// write runs inside a single transaction so concurrent calls cannot lose the
// monotonic non-increasing end_date invariant. The updated record is
// returned.
//
// The operation is idempotent: a second call with the same reference date
// leaves end_date unchanged, and a window that already ended earlier is
// never extended.
func DeactivatePromotion(ctx context.Context, db *gorm.DB, id int, day domain.Date) (*domain.Promotion, error) {
	var p domain.Promotion
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		p.EndDate = domain.MinDate(p.EndDate, day.AddDays(-1))
		p.LastUpdated = time.Now().UTC()
		return tx.Model(&p).Updates(map[string]any{
			"end_date":     p.EndDate,
			"last_updated": p.LastUpdated,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePromotion removes a promotion permanently. Deleting an id that does
// not exist is a no-op, not an error, per the documented contract of the
// delete operation.
func DeletePromotion(ctx context.Context, db *gorm.DB, id int) error {
	return db.WithContext(ctx).Delete(&domain.Promotion{}, id).Error
}
