// Package proof defines the Linked Data Proof attached to embedded-proof
// credentials and presentations.
package proof

import (
	"fmt"
)

// Proof represents a Data Integrity proof on a Verifiable Credential.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue,omitempty"`
	Cryptosuite        string `json:"cryptosuite,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	Domain             string `json:"domain,omitempty"`
}

// Serialize converts a slice of proofs to the JSON shape used in credentials:
// a single object for one proof, an array for several.
func Serialize(proofs []Proof) interface{} {
	if len(proofs) == 0 {
		return nil
	}

	result := make([]map[string]interface{}, len(proofs))
	for i, p := range proofs {
		m := make(map[string]interface{})
		if p.Type != "" {
			m["type"] = p.Type
		}
		if p.Created != "" {
			m["created"] = p.Created
		}
		if p.VerificationMethod != "" {
			m["verificationMethod"] = p.VerificationMethod
		}
		if p.ProofPurpose != "" {
			m["proofPurpose"] = p.ProofPurpose
		}
		if p.ProofValue != "" {
			m["proofValue"] = p.ProofValue
		}
		if p.Cryptosuite != "" {
			m["cryptosuite"] = p.Cryptosuite
		}
		if p.Challenge != "" {
			m["challenge"] = p.Challenge
		}
		if p.Domain != "" {
			m["domain"] = p.Domain
		}
		result[i] = m
	}
	if len(result) == 1 {
		return result[0]
	}
	return result
}

// Parse converts a raw proof value (a JSON object, or the first element of a
// JSON array of objects) into a Proof.
func Parse(raw interface{}) (Proof, error) {
	if arr, ok := raw.([]interface{}); ok {
		if len(arr) == 0 {
			return Proof{}, fmt.Errorf("proof array is empty")
		}
		raw = arr[0]
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return Proof{}, fmt.Errorf("invalid proof format: expected object, got %T", raw)
	}

	var p Proof
	if t, ok := m["type"].(string); ok && t != "" {
		p.Type = t
	} else {
		return Proof{}, fmt.Errorf("invalid or missing proof type")
	}
	if created, ok := m["created"].(string); ok {
		p.Created = created
	}
	if vm, ok := m["verificationMethod"].(string); ok && vm != "" {
		p.VerificationMethod = vm
	} else {
		return Proof{}, fmt.Errorf("invalid or missing proof verificationMethod")
	}
	if purpose, ok := m["proofPurpose"].(string); ok {
		p.ProofPurpose = purpose
	}
	if value, ok := m["proofValue"].(string); ok {
		p.ProofValue = value
	}
	if suite, ok := m["cryptosuite"].(string); ok {
		p.Cryptosuite = suite
	}
	if ch, ok := m["challenge"].(string); ok {
		p.Challenge = ch
	}
	if dm, ok := m["domain"].(string); ok {
		p.Domain = dm
	}
	return p, nil
}
