package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// maxNameLen caps Name and PromotionType, matching the varchar(63) columns.
const maxNameLen = 63

// ValidationError reports a single offending field in a client payload.
// It is safe to surface to clients verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field '%s': %s", e.Field, e.Reason)
}

func missingField(field string) error {
	return &ValidationError{Field: field, Reason: "required field is missing"}
}

func fieldType(field, want string) error {
	return &ValidationError{Field: field, Reason: "must be " + want}
}

// IntValue coerces a decoded JSON value to an int, accepting only values
// that are integers on the wire. Strings, booleans, and fractional numbers
// are rejected. encoding/json decodes numbers as float64 (or json.Number
// when a decoder is configured with UseNumber); both are handled.
func IntValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// DeserializePromotion converts a raw JSON object into a typed Promotion,
// enforcing presence and type of every business field. It never reads id,
// created_at, or last_updated: those are owned by the server-side write path
// and any client-supplied values are ignored.
//
// Body integers are strict: numeric strings are rejected here even though
// the list query filters accept them.
func DeserializePromotion(data map[string]any) (*Promotion, error) {
	var p Promotion
	var err error

	if p.Name, err = stringField(data, "name"); err != nil {
		return nil, err
	}
	if p.PromotionType, err = stringField(data, "promotion_type"); err != nil {
		return nil, err
	}
	if p.Value, err = intField(data, "value"); err != nil {
		return nil, err
	}
	if p.ProductID, err = intField(data, "product_id"); err != nil {
		return nil, err
	}
	if p.StartDate, err = dateField(data, "start_date"); err != nil {
		return nil, err
	}
	if p.EndDate, err = dateField(data, "end_date"); err != nil {
		return nil, err
	}
	return &p, nil
}

func stringField(data map[string]any, field string) (string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return "", missingField(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldType(field, "a string")
	}
	if s == "" {
		return "", missingField(field)
	}
	if len(s) > maxNameLen {
		return "", fieldType(field, fmt.Sprintf("at most %d characters", maxNameLen))
	}
	return s, nil
}

func intField(data map[string]any, field string) (int, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return 0, missingField(field)
	}
	n, ok := IntValue(v)
	if !ok {
		return 0, fieldType(field, "an integer")
	}
	return n, nil
}

func dateField(data map[string]any, field string) (Date, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return Date{}, missingField(field)
	}
	s, ok := v.(string)
	if !ok {
		return Date{}, fieldType(field, "an ISO date (YYYY-MM-DD)")
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, fieldType(field, "an ISO date (YYYY-MM-DD)")
	}
	return d, nil
}
