// Package decode converts between typed event payloads and the generic
// map form carried by observability events.
package decode

import "encoding/json"

// FromMap decodes data into T through its JSON representation.
func FromMap[T any](data map[string]any) (T, error) {
	var result T
	b, err := json.Marshal(data)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(b, &result)
	return result, err
}

// ToMap encodes v as a map keyed by its JSON field names.
// Numeric fields come back as float64.
func ToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}
