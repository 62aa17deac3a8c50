// Package domain defines the persistence model for promotions and the
// validation rules that turn raw client payloads into typed records. These
// types are mapped with GORM and form the core data layer of the promotions
// application.
package domain

import (
	"time"
)

// Promotion represents a time-bounded discount campaign tied to a product.
// A promotion is "active" on a date D when StartDate <= D <= EndDate,
// inclusive on both ends.
//
// Fields:
//   - ID: server-assigned auto-increment primary key; immutable once set.
//   - Name: campaign name, up to 63 characters.
//   - PromotionType: free-form type label (e.g. "Percentage off"), up to 63 chars.
//   - Value: integer magnitude of the discount; units depend on the type.
//   - ProductID: identifier of the product the campaign applies to; indexed.
//   - StartDate / EndDate: inclusive activation window. No ordering constraint
//     is enforced between them; an inverted window is simply never active.
//   - CreatedAt / LastUpdated: audit timestamps owned by the write path.
//     Client-supplied values are never read.
type Promotion struct {
	ID            int       `json:"id"             gorm:"primaryKey;autoIncrement"`
	Name          string    `json:"name"           gorm:"type:varchar(63);not null"`
	PromotionType string    `json:"promotion_type" gorm:"type:varchar(63);not null"`
	Value         int       `json:"value"          gorm:"not null"`
	ProductID     int       `json:"product_id"     gorm:"not null;index:idx_promotions_product"`
	StartDate     Date      `json:"start_date"     gorm:"type:date;not null"`
	EndDate       Date      `json:"end_date"       gorm:"type:date;not null"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"last_updated"   gorm:"column:last_updated"`
}

// TableName returns the database table name for Promotion.
func (Promotion) TableName() string { return "promotions" }

// ActiveOn reports whether the promotion is live on the given date.
// Both window edges are inclusive.
func (p *Promotion) ActiveOn(d Date) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
