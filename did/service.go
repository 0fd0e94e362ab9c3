package did

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

// Service expresses a way of interacting with the document subject, e.g. a
// service endpoint URL or an inline revocation bitmap.
type Service struct {
	ID              *URL
	Types           []string
	ServiceEndpoint interface{}
	Properties      map[string]interface{}
}

// NewService builds a Service with a single type and a string endpoint.
func NewService(id *URL, serviceType string, endpoint interface{}) (*Service, error) {
	s := &Service{ID: id, Types: []string{serviceType}, ServiceEndpoint: endpoint}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the service invariants: a fragment-bearing id, at least one
// type, and a populated endpoint.
func (s *Service) Validate() error {
	if s.ID == nil || s.ID.Fragment() == "" {
		return fmt.Errorf("service id must include a fragment")
	}
	if len(s.Types) == 0 {
		return fmt.Errorf("service %q must have at least one type", s.ID)
	}
	if s.ServiceEndpoint == nil {
		return fmt.Errorf("service %q must have a serviceEndpoint", s.ID)
	}
	return nil
}

// HasType reports whether the service declares the given type.
func (s *Service) HasType(serviceType string) bool {
	return slices.Contains(s.Types, serviceType)
}

// EndpointString returns the endpoint as a single URL string. Array and map
// endpoints are rejected.
func (s *Service) EndpointString() (string, error) {
	ep, ok := s.ServiceEndpoint.(string)
	if !ok {
		return "", fmt.Errorf("service %q endpoint is not a single URL, got %T", s.ID, s.ServiceEndpoint)
	}
	return ep, nil
}

// serviceJSON is the wire form of Service. The type field is a string or an
// array of strings, matching how documents in the wild serialize it.
type serviceJSON struct {
	ID              *URL        `json:"id"`
	Type            interface{} `json:"type"`
	ServiceEndpoint interface{} `json:"serviceEndpoint"`
}

// MarshalJSON implements json.Marshaler.
func (s Service) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"id":              s.ID,
		"serviceEndpoint": s.ServiceEndpoint,
	}
	if len(s.Types) == 1 {
		out["type"] = s.Types[0]
	} else {
		out["type"] = s.Types
	}
	for k, v := range s.Properties {
		if _, reserved := out[k]; !reserved {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Service) UnmarshalJSON(data []byte) error {
	var wire serviceJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to unmarshal service: %w", err)
	}

	s.ID = wire.ID
	s.ServiceEndpoint = wire.ServiceEndpoint

	s.Types = nil
	switch t := wire.Type.(type) {
	case string:
		s.Types = []string{t}
	case []interface{}:
		for _, entry := range t {
			str, ok := entry.(string)
			if !ok {
				return fmt.Errorf("service type entries must be strings, got %T", entry)
			}
			s.Types = append(s.Types, str)
		}
	default:
		return fmt.Errorf("unsupported service type field: %T", wire.Type)
	}

	var rest map[string]interface{}
	if err := json.Unmarshal(data, &rest); err != nil {
		return fmt.Errorf("failed to unmarshal service properties: %w", err)
	}
	delete(rest, "id")
	delete(rest, "type")
	delete(rest, "serviceEndpoint")
	if len(rest) > 0 {
		s.Properties = rest
	}

	return s.Validate()
}
