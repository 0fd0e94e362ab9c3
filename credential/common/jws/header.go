package jws

import (
	"encoding/json"
	"fmt"
)

// Registered header parameter names handled by the codec.
const (
	headerAlg  = "alg"
	headerKid  = "kid"
	headerTyp  = "typ"
	headerB64  = "b64"
	headerCrit = "crit"
)

// Header is a JWS protected header. Callers set registered parameters through
// the typed accessors and may add custom parameters directly.
type Header map[string]interface{}

// NewHeader returns a header carrying the given algorithm.
func NewHeader(alg Algorithm) Header {
	return Header{headerAlg: alg.String()}
}

// Algorithm returns the alg parameter, or "" if absent.
func (h Header) Algorithm() string {
	s, _ := h[headerAlg].(string)
	return s
}

// Kid returns the kid parameter, or "" if absent.
func (h Header) Kid() string {
	s, _ := h[headerKid].(string)
	return s
}

// SetKid sets the kid parameter.
func (h Header) SetKid(kid string) {
	h[headerKid] = kid
}

// SetTyp sets the typ parameter.
func (h Header) SetTyp(typ string) {
	h[headerTyp] = typ
}

// B64 returns the b64 parameter per RFC 7797, defaulting to true.
func (h Header) B64() bool {
	b, ok := h[headerB64].(bool)
	if !ok {
		return true
	}
	return b
}

// Validate checks the header invariants: an alg parameter must be present and
// supported, and the crit list must be well-formed. Registered parameter
// names must not appear in crit, b64 must be listed there when set, and any
// critical extension this codec does not implement is rejected, per
// RFC 7515 §4.1.11 and RFC 7797 §6. b64 is the only extension implemented.
func (h Header) Validate() error {
	if h == nil {
		return fmt.Errorf("missing JWS header")
	}
	if _, err := ParseAlgorithm(h.Algorithm()); err != nil {
		return err
	}

	critRaw, hasCrit := h[headerCrit]
	var crit []string
	if hasCrit {
		entries, ok := critRaw.([]interface{})
		if !ok || len(entries) == 0 {
			return fmt.Errorf("invalid crit parameter: must be a non-empty array")
		}
		seen := map[string]bool{}
		for _, entry := range entries {
			name, ok := entry.(string)
			if !ok || name == "" {
				return fmt.Errorf("invalid crit parameter: entries must be non-empty strings")
			}
			if seen[name] {
				return fmt.Errorf("invalid crit parameter: duplicate entry %q", name)
			}
			seen[name] = true
			switch name {
			case headerAlg, headerKid, headerTyp, headerCrit:
				return fmt.Errorf("invalid crit parameter: %q is a registered header", name)
			}
			if name != headerB64 {
				return fmt.Errorf("unsupported critical extension %q", name)
			}
			if _, present := h[name]; !present {
				return fmt.Errorf("invalid crit parameter: %q is not present in the header", name)
			}
			crit = append(crit, name)
		}
	}

	if _, hasB64 := h[headerB64]; hasB64 {
		if _, isBool := h[headerB64].(bool); !isBool {
			return fmt.Errorf("invalid b64 parameter: must be a boolean")
		}
		found := false
		for _, name := range crit {
			if name == headerB64 {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("invalid b64 parameter: must be listed in crit")
		}
	}

	return nil
}

// decodeHeader parses a JSON protected header and validates it.
func decodeHeader(raw []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JWS header: %w", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}
