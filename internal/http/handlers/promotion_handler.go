// Promotion HTTP handlers.
//
// This file exposes the REST endpoints for promotion resources:
//   - GET    /promotions                  (list, with filter resolution)
//   - GET    /promotions/{id}             (read)
//   - POST   /promotions                  (create)
//   - PUT    /promotions/{id}             (full replace)
//   - PUT    /promotions/{id}/deactivate  (action)
//   - DELETE /promotions/{id}             (delete, idempotent)
//
// Handlers are transport-thin: they validate input, call the application
// service, and translate results into HTTP responses. Filter priority,
// activation-window math, and lifecycle rules all live in the service layer.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-promotions-service/internal/domain"
	"github.com/tbourn/go-promotions-service/internal/services"
)

//
// Service contract (context-aware)
//

// PromotionService defines the promotion operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PromotionService interface {
	// List resolves the query filters to at most one and returns matches.
	List(ctx context.Context, f services.ListFilters) ([]domain.Promotion, error)
	// Get returns a single promotion by id.
	Get(ctx context.Context, id int) (*domain.Promotion, error)
	// Create validates a raw payload and persists a new promotion.
	Create(ctx context.Context, data map[string]any) (*domain.Promotion, error)
	// Update performs a full replace of the identified promotion.
	Update(ctx context.Context, id int, data map[string]any) (*domain.Promotion, error)
	// Deactivate clamps the promotion's end date to yesterday.
	Deactivate(ctx context.Context, id int) (*domain.Promotion, error)
	// Delete removes a promotion; missing ids are treated as success.
	Delete(ctx context.Context, id int) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the promotions API. It depends on
// an abstract service interface to keep transport concerns separate from
// business logic.
type Handlers struct {
	svc PromotionService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(svc PromotionService) *Handlers {
	return &Handlers{svc: svc}
}

// legacyProductIDParam is the deprecated query name that older clients used
// for the product filter. It is a pure rename: the value is mapped onto
// product_id before filter resolution, with the canonical name winning when
// both are present.
const legacyProductIDParam = "promo_product_id"

//
// Helpers
//

// queryPtr returns the raw value of a query parameter, or nil when the
// parameter was absent. Presence matters for filter resolution: an empty
// value is still a supplied filter.
func queryPtr(c *gin.Context, name string) *string {
	if v, ok := c.GetQuery(name); ok {
		return &v
	}
	return nil
}

// requireJSON enforces that the request body is JSON. Any media type whose
// parsed base type is application/json passes; parameters such as charset
// are ignored. On violation it writes a 415 and reports false.
func requireJSON(c *gin.Context) bool {
	raw := c.GetHeader("Content-Type")
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil || mediaType != "application/json" {
		got := raw
		if got == "" {
			got = "none"
		}
		fail(c, http.StatusUnsupportedMediaType, TitleUnsupportedMediaType,
			fmt.Sprintf("Content-Type must be application/json; received %s", got))
		return false
	}
	return true
}

// pathID parses the {id} path segment. A non-numeric segment addresses a
// resource that cannot exist, so it is reported as not found rather than as
// a malformed request.
func pathID(c *gin.Context) (int, bool) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		fail(c, http.StatusNotFound, TitleNotFound, notFoundMessage(raw))
		return 0, false
	}
	return id, true
}

func notFoundMessage(id any) string {
	return fmt.Sprintf("Promotion with id '%v' was not found.", id)
}

// locationFor builds the Location header value for a freshly created
// promotion, anchored at the request path.
func locationFor(c *gin.Context, id int) string {
	return strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + strconv.Itoa(id)
}

//
// Handlers
//

// Index godoc
// @ID          index
// @Summary     Service index
// @Description Returns the service name, version, and top-level resource paths.
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  map[string]any
// @Router      / [get]
func (h *Handlers) Index(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"name":        "Promotions Service",
		"version":     "1.0.0",
		"description": "RESTful service for managing promotions",
		"paths": gin.H{
			"promotions": "/promotions",
		},
	})
}

// ListPromotions godoc
// @ID          listPromotions
// @Summary     List promotions
// @Description Returns promotions, optionally narrowed by exactly one filter.
// @Description Priority when several are supplied: id > active > name > product_id > promotion_type.
// @Tags        Promotions
// @Produce     json
//
// @Param       id              query  string  false "Exact id; non-numeric yields an empty list"
// @Param       active          query  string  false "true/1/yes or false/0/no (case-insensitive)"
// @Param       name            query  string  false "Exact name (case-sensitive)"
// @Param       product_id      query  string  false "Exact product id; digits or numeric string"
// @Param       promotion_type  query  string  false "Exact promotion type"
//
// @Success     200  {array}   domain.Promotion
// @Failure     400  {object}  handlers.ErrorResponse "Invalid active literal"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /promotions [get]
func (h *Handlers) ListPromotions(c *gin.Context) {
	f := services.ListFilters{
		ID:            queryPtr(c, "id"),
		Active:        queryPtr(c, "active"),
		Name:          queryPtr(c, "name"),
		ProductID:     queryPtr(c, "product_id"),
		PromotionType: queryPtr(c, "promotion_type"),
	}
	// Deprecated alias: forward onto product_id before resolution.
	if f.ProductID == nil {
		f.ProductID = queryPtr(c, legacyProductIDParam)
	}

	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, services.ErrInvalidActiveFilter) {
			fail(c, http.StatusBadRequest, TitleBadRequest, fmt.Sprintf(
				"Invalid value for query parameter 'active'. Accepted: true, false, 1, 0, yes, no (case-insensitive). Received: %q",
				*f.Active))
			return
		}
		fail(c, http.StatusInternalServerError, TitleInternalServerError, internalErrorMessage)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetPromotion godoc
// @ID          getPromotion
// @Summary     Read a promotion
// @Description Returns a single promotion by id.
// @Tags        Promotions
// @Produce     json
//
// @Param       id  path  int  true  "Promotion id"
//
// @Success     200  {object}  domain.Promotion
// @Failure     404  {object}  handlers.ErrorResponse "Promotion not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /promotions/{id} [get]
func (h *Handlers) GetPromotion(c *gin.Context) {
	id, ok2 := pathID(c)
	if !ok2 {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPromotionNotFound) {
			fail(c, http.StatusNotFound, TitleNotFound, notFoundMessage(id))
			return
		}
		fail(c, http.StatusInternalServerError, TitleInternalServerError, internalErrorMessage)
		return
	}
	ok(c, http.StatusOK, p)
}

// CreatePromotion godoc
// @ID          createPromotion
// @Summary     Create a promotion
// @Description Validates the payload, assigns an id, stamps timestamps, and returns the record.
// @Tags        Promotions
// @Accept      json
// @Produce     json
//
// @Param       body  body  map[string]any  true  "Promotion payload"
//
// @Success     201  {object}  domain.Promotion
// @Header      201  {string}  Location  "Path of the created resource"
// @Failure     400  {object}  handlers.ErrorResponse "Invalid fields"
// @Failure     415  {object}  handlers.ErrorResponse "Wrong content type"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /promotions [post]
func (h *Handlers) CreatePromotion(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		fail(c, http.StatusBadRequest, TitleBadRequest, "body of request contained bad or no data")
		return
	}

	p, err := h.svc.Create(c.Request.Context(), data)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			fail(c, http.StatusBadRequest, TitleBadRequest, ve.Error())
			return
		}
		fail(c, http.StatusInternalServerError, TitleInternalServerError, internalErrorMessage)
		return
	}

	c.Header("Location", locationFor(c, p.ID))
	ok(c, http.StatusCreated, p)
}

// UpdatePromotion godoc
// @ID          updatePromotion
// @Summary     Replace a promotion
// @Description Full replace of all mutable fields; the id is immutable.
// @Tags        Promotions
// @Accept      json
// @Produce     json
//
// @Param       id    path  int             true  "Promotion id"
// @Param       body  body  map[string]any  true  "Full replacement payload"
//
// @Success     200  {object}  domain.Promotion
// @Failure     400  {object}  handlers.ErrorResponse "Id mismatch or invalid fields"
// @Failure     404  {object}  handlers.ErrorResponse "Promotion not found"
// @Failure     415  {object}  handlers.ErrorResponse "Wrong content type"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /promotions/{id} [put]
func (h *Handlers) UpdatePromotion(c *gin.Context) {
	id, ok2 := pathID(c)
	if !ok2 {
		return
	}
	if !requireJSON(c) {
		return
	}
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		fail(c, http.StatusBadRequest, TitleBadRequest, "body of request contained bad or no data")
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIDMismatch):
			fail(c, http.StatusBadRequest, TitleBadRequest, "ID in body must match resource path")
		case errors.Is(err, services.ErrPromotionNotFound):
			fail(c, http.StatusNotFound, TitleNotFound, notFoundMessage(id))
		default:
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				fail(c, http.StatusBadRequest, TitleBadRequest, ve.Error())
				return
			}
			fail(c, http.StatusInternalServerError, TitleInternalServerError, internalErrorMessage)
		}
		return
	}
	ok(c, http.StatusOK, p)
}

// DeactivatePromotion godoc
// @ID          deactivatePromotion
// @Summary     Deactivate a promotion
// @Description Clamps end_date to yesterday so the promotion is no longer active today.
// @Description Idempotent; never extends an end_date that already passed. Any body is ignored.
// @Tags        Promotions
// @Produce     json
//
// @Param       id  path  int  true  "Promotion id"
//
// @Success     200  {object}  domain.Promotion
// @Failure     404  {object}  handlers.ErrorResponse "Promotion not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /promotions/{id}/deactivate [put]
func (h *Handlers) DeactivatePromotion(c *gin.Context) {
	id, ok2 := pathID(c)
	if !ok2 {
		return
	}
	p, err := h.svc.Deactivate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPromotionNotFound) {
			fail(c, http.StatusNotFound, TitleNotFound, notFoundMessage(id))
			return
		}
		fail(c, http.StatusInternalServerError, TitleInternalServerError, internalErrorMessage)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePromotion godoc
// @ID          deletePromotion
// @Summary     Delete a promotion
// @Description Removes a promotion permanently. Deleting a missing id is a silent no-op.
// @Tags        Promotions
//
// @Param       id  path  int  true  "Promotion id"
//
// @Success     204  {string}  string "No Content"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /promotions/{id} [delete]
func (h *Handlers) DeletePromotion(c *gin.Context) {
	id, ok2 := pathID(c)
	if !ok2 {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, TitleInternalServerError, internalErrorMessage)
		return
	}
	noContent(c)
}
