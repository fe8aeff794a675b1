package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Variants is the variant list of a product. It decodes from a JSON array or
// from a JSON string holding an array, and always encodes as an array.
type Variants []Variant

// MarshalJSON encodes nil as an empty array
func (v Variants) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Variant(v))
}

// UnmarshalJSON accepts an array, a string-encoded array or null
func (v *Variants) UnmarshalJSON(data []byte) error {
	return v.decode(data)
}

func (v *Variants) decode(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = nil
		return nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return fmt.Errorf("invalid variants string: %w", err)
		}
		return v.decode([]byte(inner))
	}

	var list []Variant
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("invalid variants: %w", err)
	}
	*v = list
	return nil
}

// Value implements driver.Valuer
func (v Variants) Value() (driver.Value, error) {
	return jsonValue(v.MarshalJSON())
}

// Scan implements sql.Scanner
func (v *Variants) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		return v.decode(s)
	case string:
		return v.decode([]byte(s))
	default:
		return fmt.Errorf("cannot scan %T into Variants", src)
	}
}

// OrderItems is the jsonb item list of an order
type OrderItems []OrderItem

// MarshalJSON encodes nil as an empty array
func (items OrderItems) MarshalJSON() ([]byte, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]OrderItem(items))
}

// Value implements driver.Valuer
func (items OrderItems) Value() (driver.Value, error) {
	return jsonValue(items.MarshalJSON())
}

// Scan implements sql.Scanner
func (items *OrderItems) Scan(src interface{}) error {
	var list []OrderItem
	if err := scanJSON(src, &list); err != nil {
		return fmt.Errorf("cannot scan order items: %w", err)
	}
	*items = list
	return nil
}

// Value implements driver.Valuer
func (a Address) Value() (driver.Value, error) {
	return jsonValue(json.Marshal(a))
}

// Scan implements sql.Scanner
func (a *Address) Scan(src interface{}) error {
	if err := scanJSON(src, a); err != nil {
		return fmt.Errorf("cannot scan billing address: %w", err)
	}
	return nil
}

func scanJSON(src interface{}, dest interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dest)
	case string:
		return json.Unmarshal([]byte(s), dest)
	default:
		return fmt.Errorf("unsupported type %T", src)
	}
}

// jsonValue hands jsonb parameters to the driver as text
func jsonValue(b []byte, err error) (driver.Value, error) {
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
