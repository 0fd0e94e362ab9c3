// Package jsonmap provides the free-form JSON object representation shared by
// the credential and presentation models.
package jsonmap

import (
	"encoding/json"
	"fmt"

	"github.com/pilacorp/go-identity-sdk/credential/common/processor"
)

// JSONMap represents a JSON object as a map.
type JSONMap map[string]interface{}

// ToJSON serializes the JSONMap to JSON.
func (m *JSONMap) ToJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}
	return data, nil
}

// FromJSON parses a JSON object into a JSONMap.
func FromJSON(data []byte) (JSONMap, error) {
	var m JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONMap: %w", err)
	}
	return m, nil
}

// Canonicalize canonicalizes the JSONMap for signing or verification,
// excluding the proof field, and returns the SHA-256 digest of the
// canonical form.
func (m *JSONMap) Canonicalize() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	mCopy := make(map[string]interface{}, len(*m))
	for k, v := range *m {
		if k != "proof" {
			mCopy[k] = v
		}
	}

	canonical, err := processor.CanonicalizeDocument(mCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}

	return processor.ComputeDigest(canonical)
}

// ShallowCopy returns a new map with the same top-level keys and values.
func ShallowCopy(obj map[string]interface{}) JSONMap {
	result := make(JSONMap, len(obj))
	for k, v := range obj {
		result[k] = v
	}
	return result
}

// Split separates the named keys from the rest of the object. The first
// return value holds the named keys that were present, the second the rest.
func Split(obj map[string]interface{}, keys ...string) (JSONMap, JSONMap) {
	named := make(JSONMap)
	rest := make(JSONMap)

	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}

	for k, v := range obj {
		if _, ok := wanted[k]; ok {
			named[k] = v
		} else {
			rest[k] = v
		}
	}
	return named, rest
}

// StringField extracts an optional string field, failing when the field is
// present but not a string.
func StringField(obj map[string]interface{}, name string) (string, error) {
	value, ok := obj[name]
	if !ok {
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string, got %T", name, value)
	}
	return str, nil
}
