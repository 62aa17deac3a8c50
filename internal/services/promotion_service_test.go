package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-promotions-service/internal/domain"
)

// ----- Fake repo -----

type fakePromotionRepo struct {
	// capture args
	createP *domain.Promotion
	createErr error

	getID   int
	getP    *domain.Promotion
	getErr  error
	getCalls int

	listAll    []domain.Promotion
	listAllErr error
	listCalls  int

	byName      string
	byNameItems []domain.Promotion

	byProduct      int
	byProductItems []domain.Promotion

	byType      string
	byTypeItems []domain.Promotion

	activeDay   domain.Date
	activeItems []domain.Promotion

	inactiveDay   domain.Date
	inactiveItems []domain.Promotion

	updateP   *domain.Promotion
	updateErr error

	deactivateID  int
	deactivateDay domain.Date
	deactivateP   *domain.Promotion
	deactivateErr error

	deleteID  int
	deleteErr error
}

func (r *fakePromotionRepo) CreatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error {
	r.createP = p
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = 42
	now := time.Now().UTC()
	p.CreatedAt, p.LastUpdated = now, now
	return nil
}

func (r *fakePromotionRepo) GetPromotion(ctx context.Context, db *gorm.DB, id int) (*domain.Promotion, error) {
	r.getID = id
	r.getCalls++
	return r.getP, r.getErr
}

func (r *fakePromotionRepo) ListPromotions(ctx context.Context, db *gorm.DB) ([]domain.Promotion, error) {
	r.listCalls++
	return r.listAll, r.listAllErr
}

func (r *fakePromotionRepo) ListByName(ctx context.Context, db *gorm.DB, name string) ([]domain.Promotion, error) {
	r.byName = name
	return r.byNameItems, nil
}

func (r *fakePromotionRepo) ListByProductID(ctx context.Context, db *gorm.DB, productID int) ([]domain.Promotion, error) {
	r.byProduct = productID
	return r.byProductItems, nil
}

func (r *fakePromotionRepo) ListByType(ctx context.Context, db *gorm.DB, promotionType string) ([]domain.Promotion, error) {
	r.byType = promotionType
	return r.byTypeItems, nil
}

func (r *fakePromotionRepo) ListActiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error) {
	r.activeDay = day
	return r.activeItems, nil
}

func (r *fakePromotionRepo) ListInactiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error) {
	r.inactiveDay = day
	return r.inactiveItems, nil
}

func (r *fakePromotionRepo) UpdatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error {
	r.updateP = p
	return r.updateErr
}

func (r *fakePromotionRepo) DeactivatePromotion(ctx context.Context, db *gorm.DB, id int, day domain.Date) (*domain.Promotion, error) {
	r.deactivateID, r.deactivateDay = id, day
	return r.deactivateP, r.deactivateErr
}

func (r *fakePromotionRepo) DeletePromotion(ctx context.Context, db *gorm.DB, id int) error {
	r.deleteID = id
	return r.deleteErr
}

// ----- helpers -----

func strp(s string) *string { return &s }

func fixedService(r *fakePromotionRepo, day domain.Date) *PromotionService {
	s := NewPromotionService(nil, r)
	s.Now = func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	if !day.IsZero() {
		s.Now = func() time.Time {
			var t time.Time
			// reconstruct midday on the requested date
			t, _ = time.Parse("2006-01-02", day.String())
			return t.Add(12 * time.Hour)
		}
	}
	return s
}

func validData() map[string]any {
	return map[string]any{
		"name":           "Summer",
		"promotion_type": "Percentage off",
		"value":          float64(25),
		"product_id":     float64(123),
		"start_date":     "2025-06-01",
		"end_date":       "2025-06-30",
	}
}

// ----- Tests -----

func TestNewPromotionService_Defaults(t *testing.T) {
	r := &fakePromotionRepo{}
	s := NewPromotionService(nil, r)

	if s.Repo != r {
		t.Fatalf("repo not set")
	}
	if s.Now == nil {
		t.Fatalf("Now must default to the real clock")
	}
	// today() must survive a nil Now as well.
	s.Now = nil
	if s.today().IsZero() {
		t.Fatalf("today() with nil Now returned zero date")
	}
}

func TestList_NoFilter_ReturnsAll(t *testing.T) {
	r := &fakePromotionRepo{listAll: []domain.Promotion{{ID: 1}, {ID: 2}}}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 || r.listCalls != 1 {
		t.Fatalf("out=%v listCalls=%d", out, r.listCalls)
	}
}

func TestList_NoFilter_EmptyIsNonNil(t *testing.T) {
	r := &fakePromotionRepo{listAll: nil}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{})
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("want non-nil empty slice, got %v err=%v", out, err)
	}
}

func TestList_IDFilter(t *testing.T) {
	p := &domain.Promotion{ID: 5, Name: "Foo"}
	r := &fakePromotionRepo{getP: p}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{ID: strp("5")})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ID != 5 || r.getID != 5 {
		t.Fatalf("out=%v getID=%d", out, r.getID)
	}
}

func TestList_IDFilter_MissingRecordIsEmpty(t *testing.T) {
	r := &fakePromotionRepo{getErr: gorm.ErrRecordNotFound}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{ID: strp("999")})
	if err != nil || len(out) != 0 || out == nil {
		t.Fatalf("want empty slice, got %v err=%v", out, err)
	}
}

func TestList_IDFilter_NonNumericIsEmptyNotError(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{ID: strp("abc")})
	if err != nil || len(out) != 0 {
		t.Fatalf("want empty, no error; got %v err=%v", out, err)
	}
	if r.getCalls != 0 {
		t.Fatalf("repo should not be consulted for a non-numeric id")
	}
}

func TestList_PriorityIDBeatsEverything(t *testing.T) {
	p := &domain.Promotion{ID: 5, Name: "Other"}
	r := &fakePromotionRepo{getP: p, byNameItems: []domain.Promotion{{ID: 9, Name: "Foo"}}}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{
		ID:            strp("5"),
		Active:        strp("maybe"), // would 400 if it were consulted
		Name:          strp("Foo"),
		ProductID:     strp("junk"),
		PromotionType: strp("x"),
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ID != 5 {
		t.Fatalf("id filter did not win: %v", out)
	}
	if r.byName != "" {
		t.Fatalf("lower-priority name filter was applied")
	}
}

func TestList_PriorityActiveBeatsName(t *testing.T) {
	r := &fakePromotionRepo{activeItems: []domain.Promotion{{ID: 1}}}
	s := fixedService(r, domain.NewDate(2025, time.June, 15))

	out, err := s.List(context.Background(), ListFilters{
		Active: strp("true"),
		Name:   strp("Foo"),
	})
	if err != nil || len(out) != 1 {
		t.Fatalf("out=%v err=%v", out, err)
	}
	if r.byName != "" {
		t.Fatalf("name filter applied alongside active")
	}
	if !r.activeDay.Equal(domain.NewDate(2025, time.June, 15)) {
		t.Fatalf("active day = %v; want injected today", r.activeDay)
	}
}

func TestList_ActiveTokens(t *testing.T) {
	day := domain.NewDate(2025, time.June, 15)

	for _, tok := range []string{"true", "TRUE", "1", "yes", " Yes "} {
		r := &fakePromotionRepo{activeItems: []domain.Promotion{{ID: 1}}}
		s := fixedService(r, day)
		if _, err := s.List(context.Background(), ListFilters{Active: strp(tok)}); err != nil {
			t.Errorf("active=%q: %v", tok, err)
		}
		if r.activeDay.IsZero() {
			t.Errorf("active=%q did not hit the active branch", tok)
		}
	}
	for _, tok := range []string{"false", "0", "no", "NO"} {
		r := &fakePromotionRepo{inactiveItems: []domain.Promotion{{ID: 2}}}
		s := fixedService(r, day)
		out, err := s.List(context.Background(), ListFilters{Active: strp(tok)})
		if err != nil || len(out) != 1 || out[0].ID != 2 {
			t.Errorf("active=%q: out=%v err=%v", tok, out, err)
		}
		if !r.inactiveDay.Equal(day) {
			t.Errorf("active=%q inactive day = %v", tok, r.inactiveDay)
		}
	}
}

func TestList_ActiveInvalidLiteral(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	_, err := s.List(context.Background(), ListFilters{Active: strp("maybe")})
	if !errors.Is(err, ErrInvalidActiveFilter) {
		t.Fatalf("got %v; want ErrInvalidActiveFilter", err)
	}
}

func TestList_NameAndTypeAreTrimmed(t *testing.T) {
	r := &fakePromotionRepo{byNameItems: []domain.Promotion{{ID: 1}}}
	s := fixedService(r, domain.Date{})

	if _, err := s.List(context.Background(), ListFilters{Name: strp("  Summer ")}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if r.byName != "Summer" {
		t.Fatalf("name not trimmed: %q", r.byName)
	}

	if _, err := s.List(context.Background(), ListFilters{PromotionType: strp(" BOGO ")}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if r.byType != "BOGO" {
		t.Fatalf("type not trimmed: %q", r.byType)
	}
}

func TestList_ProductID_AcceptsNumericString(t *testing.T) {
	r := &fakePromotionRepo{byProductItems: []domain.Promotion{{ID: 3}}}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{ProductID: strp(" 123 ")})
	if err != nil || len(out) != 1 {
		t.Fatalf("out=%v err=%v", out, err)
	}
	if r.byProduct != 123 {
		t.Fatalf("product id = %d; want 123", r.byProduct)
	}
}

func TestList_ProductID_NonNumericIsEmptyNotError(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	out, err := s.List(context.Background(), ListFilters{ProductID: strp("abc")})
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("want empty slice without error, got %v err=%v", out, err)
	}
}

func TestGet_MapsNotFound(t *testing.T) {
	r := &fakePromotionRepo{getErr: gorm.ErrRecordNotFound}
	s := fixedService(r, domain.Date{})

	if _, err := s.Get(context.Background(), 7); !errors.Is(err, ErrPromotionNotFound) {
		t.Fatalf("got %v; want ErrPromotionNotFound", err)
	}
}

func TestCreate_ValidPayload(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	p, err := s.Create(context.Background(), validData())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != 42 {
		t.Fatalf("id not assigned by repo: %+v", p)
	}
	if r.createP == nil || r.createP.Name != "Summer" {
		t.Fatalf("repo not called with the validated payload: %+v", r.createP)
	}
}

func TestCreate_ValidationFailureSkipsRepo(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	data := validData()
	data["value"] = "25"

	_, err := s.Create(context.Background(), data)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "value" {
		t.Fatalf("got %v; want ValidationError on value", err)
	}
	if r.createP != nil {
		t.Fatalf("repo was called despite invalid payload")
	}
}

func TestUpdate_IDMismatch_NoPersistenceAccess(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	data := validData()
	data["id"] = float64(99)

	_, err := s.Update(context.Background(), 5, data)
	if !errors.Is(err, ErrIDMismatch) {
		t.Fatalf("got %v; want ErrIDMismatch", err)
	}
	if r.getCalls != 0 || r.updateP != nil {
		t.Fatalf("persistence touched on id mismatch")
	}
}

func TestUpdate_MatchingBodyIDAccepted(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &fakePromotionRepo{getP: &domain.Promotion{ID: 5, CreatedAt: created}}
	s := fixedService(r, domain.Date{})

	data := validData()
	data["id"] = float64(5)

	p, err := s.Update(context.Background(), 5, data)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.ID != 5 {
		t.Fatalf("id = %d; want 5", p.ID)
	}
	if !p.CreatedAt.Equal(created) {
		t.Fatalf("created_at not preserved: %v", p.CreatedAt)
	}
	if r.updateP == nil || r.updateP.Name != "Summer" {
		t.Fatalf("repo update not called: %+v", r.updateP)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	r := &fakePromotionRepo{getErr: gorm.ErrRecordNotFound}
	s := fixedService(r, domain.Date{})

	_, err := s.Update(context.Background(), 5, validData())
	if !errors.Is(err, ErrPromotionNotFound) {
		t.Fatalf("got %v; want ErrPromotionNotFound", err)
	}
	if r.updateP != nil {
		t.Fatalf("update should not run for a missing record")
	}
}

func TestUpdate_InvalidFields(t *testing.T) {
	r := &fakePromotionRepo{getP: &domain.Promotion{ID: 5}}
	s := fixedService(r, domain.Date{})

	data := validData()
	data["end_date"] = "soon"

	_, err := s.Update(context.Background(), 5, data)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "end_date" {
		t.Fatalf("got %v; want ValidationError on end_date", err)
	}
	if r.updateP != nil {
		t.Fatalf("update ran despite invalid payload")
	}
}

func TestDeactivate_PassesToday(t *testing.T) {
	day := domain.NewDate(2025, time.June, 15)
	r := &fakePromotionRepo{deactivateP: &domain.Promotion{ID: 5}}
	s := fixedService(r, day)

	p, err := s.Deactivate(context.Background(), 5)
	if err != nil || p.ID != 5 {
		t.Fatalf("p=%v err=%v", p, err)
	}
	if r.deactivateID != 5 || !r.deactivateDay.Equal(day) {
		t.Fatalf("repo args: id=%d day=%v", r.deactivateID, r.deactivateDay)
	}
}

func TestDeactivate_MapsNotFound(t *testing.T) {
	r := &fakePromotionRepo{deactivateErr: gorm.ErrRecordNotFound}
	s := fixedService(r, domain.Date{})

	if _, err := s.Deactivate(context.Background(), 999); !errors.Is(err, ErrPromotionNotFound) {
		t.Fatalf("got %v; want ErrPromotionNotFound", err)
	}
}

func TestDelete_Passthrough(t *testing.T) {
	r := &fakePromotionRepo{}
	s := fixedService(r, domain.Date{})

	if err := s.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.deleteID != 7 {
		t.Fatalf("deleteID = %d", r.deleteID)
	}
}
