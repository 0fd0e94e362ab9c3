package did

import (
	"encoding/json"
	"fmt"
)

// Relationship names a verification relationship collection of a document.
type Relationship int

const (
	// RelationshipNone selects the plain verificationMethod set.
	RelationshipNone Relationship = iota
	RelationshipAuthentication
	RelationshipAssertionMethod
	RelationshipKeyAgreement
	RelationshipCapabilityInvocation
	RelationshipCapabilityDelegation
)

// Document is a DID document: the resolved record of verification methods,
// verification relationships and services associated with a DID. Resolved
// copies are read-only snapshots; mutation is an owner-side operation.
type Document struct {
	Context              []interface{}
	ID                   DID
	Controller           []DID
	VerificationMethod   []*VerificationMethod
	Authentication       []*MethodRelation
	AssertionMethod      []*MethodRelation
	KeyAgreement         []*MethodRelation
	CapabilityInvocation []*MethodRelation
	CapabilityDelegation []*MethodRelation
	Service              []*Service
	Properties           map[string]interface{}
}

// NewDocument returns an empty document for the given DID.
func NewDocument(id DID) *Document {
	return &Document{
		Context: []interface{}{"https://www.w3.org/ns/did/v1"},
		ID:      id,
	}
}

// InsertMethod adds a verification method to the document, optionally
// attaching it to a relationship by reference. The method's fragment must be
// unique among all methods and services in the document.
func (doc *Document) InsertMethod(vm *VerificationMethod, rel Relationship) error {
	if err := vm.Validate(); err != nil {
		return err
	}
	if doc.containsFragment(vm.ID.Fragment()) {
		return fmt.Errorf("fragment %q already exists in document %q", vm.ID.Fragment(), doc.ID)
	}

	doc.VerificationMethod = append(doc.VerificationMethod, vm)
	if rel != RelationshipNone {
		relation := &MethodRelation{Reference: vm.ID}
		*doc.relationship(rel) = append(*doc.relationship(rel), relation)
	}
	return nil
}

// AttachMethodReference links an already-declared method into a relationship.
func (doc *Document) AttachMethodReference(ref *URL, rel Relationship) error {
	if rel == RelationshipNone {
		return fmt.Errorf("cannot attach a reference without a relationship")
	}
	if doc.methodByFragment(ref.Fragment()) == nil {
		return fmt.Errorf("method %q does not exist in document %q", ref, doc.ID)
	}
	*doc.relationship(rel) = append(*doc.relationship(rel), &MethodRelation{Reference: ref})
	return nil
}

// InsertService adds a service to the document under the same fragment
// uniqueness rule as verification methods.
func (doc *Document) InsertService(s *Service) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if doc.containsFragment(s.ID.Fragment()) {
		return fmt.Errorf("fragment %q already exists in document %q", s.ID.Fragment(), doc.ID)
	}
	doc.Service = append(doc.Service, s)
	return nil
}

// RemoveService deletes the service with the given fragment, reporting
// whether one was removed.
func (doc *Document) RemoveService(fragment string) bool {
	for i, s := range doc.Service {
		if s.ID.Fragment() == fragment {
			doc.Service = append(doc.Service[:i], doc.Service[i+1:]...)
			return true
		}
	}
	return false
}

// ResolveService returns the service with the given fragment, or nil.
func (doc *Document) ResolveService(fragment string) *Service {
	for _, s := range doc.Service {
		if s.ID.Fragment() == fragment {
			return s
		}
	}
	return nil
}

// ResolveMethod dereferences a verification method by fragment, searching the
// given relationship (or every collection for RelationshipNone). Relationship
// entries holding references are resolved against the document's
// verificationMethod set.
func (doc *Document) ResolveMethod(fragment string, rel Relationship) *VerificationMethod {
	if rel == RelationshipNone {
		if vm := doc.methodByFragment(fragment); vm != nil {
			return vm
		}
		for _, r := range []Relationship{
			RelationshipAuthentication,
			RelationshipAssertionMethod,
			RelationshipKeyAgreement,
			RelationshipCapabilityInvocation,
			RelationshipCapabilityDelegation,
		} {
			if vm := doc.resolveInRelationship(fragment, r); vm != nil {
				return vm
			}
		}
		return nil
	}
	return doc.resolveInRelationship(fragment, rel)
}

func (doc *Document) resolveInRelationship(fragment string, rel Relationship) *VerificationMethod {
	for _, entry := range *doc.relationship(rel) {
		if entry.Embedded != nil && entry.Embedded.ID.Fragment() == fragment {
			return entry.Embedded
		}
		if entry.Reference != nil && entry.Reference.Fragment() == fragment {
			return doc.methodByFragment(fragment)
		}
	}
	return nil
}

func (doc *Document) methodByFragment(fragment string) *VerificationMethod {
	for _, vm := range doc.VerificationMethod {
		if vm.ID.Fragment() == fragment {
			return vm
		}
	}
	return nil
}

func (doc *Document) containsFragment(fragment string) bool {
	if doc.methodByFragment(fragment) != nil {
		return true
	}
	for _, s := range doc.Service {
		if s.ID.Fragment() == fragment {
			return true
		}
	}
	for _, r := range []Relationship{
		RelationshipAuthentication,
		RelationshipAssertionMethod,
		RelationshipKeyAgreement,
		RelationshipCapabilityInvocation,
		RelationshipCapabilityDelegation,
	} {
		for _, entry := range *doc.relationship(r) {
			if entry.Embedded != nil && entry.Embedded.ID.Fragment() == fragment {
				return true
			}
		}
	}
	return false
}

func (doc *Document) relationship(rel Relationship) *[]*MethodRelation {
	switch rel {
	case RelationshipAuthentication:
		return &doc.Authentication
	case RelationshipAssertionMethod:
		return &doc.AssertionMethod
	case RelationshipKeyAgreement:
		return &doc.KeyAgreement
	case RelationshipCapabilityInvocation:
		return &doc.CapabilityInvocation
	case RelationshipCapabilityDelegation:
		return &doc.CapabilityDelegation
	default:
		panic(fmt.Sprintf("unknown relationship %d", rel))
	}
}

// Validate checks document-wide invariants: fragment uniqueness and that
// every relationship reference resolves to a declared method.
func (doc *Document) Validate() error {
	seen := map[string]bool{}
	for _, vm := range doc.VerificationMethod {
		if err := vm.Validate(); err != nil {
			return err
		}
		if seen[vm.ID.Fragment()] {
			return fmt.Errorf("duplicate fragment %q in document %q", vm.ID.Fragment(), doc.ID)
		}
		seen[vm.ID.Fragment()] = true
	}
	for _, s := range doc.Service {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.ID.Fragment()] {
			return fmt.Errorf("duplicate fragment %q in document %q", s.ID.Fragment(), doc.ID)
		}
		seen[s.ID.Fragment()] = true
	}
	for _, r := range []Relationship{
		RelationshipAuthentication,
		RelationshipAssertionMethod,
		RelationshipKeyAgreement,
		RelationshipCapabilityInvocation,
		RelationshipCapabilityDelegation,
	} {
		for _, entry := range *doc.relationship(r) {
			if entry.Embedded != nil {
				if err := entry.Embedded.Validate(); err != nil {
					return err
				}
				if seen[entry.Embedded.ID.Fragment()] {
					return fmt.Errorf("duplicate fragment %q in document %q", entry.Embedded.ID.Fragment(), doc.ID)
				}
				seen[entry.Embedded.ID.Fragment()] = true
				continue
			}
			if entry.Reference == nil {
				return fmt.Errorf("empty relationship entry in document %q", doc.ID)
			}
			if doc.methodByFragment(entry.Reference.Fragment()) == nil {
				return fmt.Errorf("relationship reference %q does not resolve in document %q", entry.Reference, doc.ID)
			}
		}
	}
	return nil
}

// documentJSON is the wire form of Document.
type documentJSON struct {
	Context              interface{}           `json:"@context,omitempty"`
	ID                   DID                   `json:"id"`
	Controller           interface{}           `json:"controller,omitempty"`
	VerificationMethod   []*VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []*MethodRelation     `json:"authentication,omitempty"`
	AssertionMethod      []*MethodRelation     `json:"assertionMethod,omitempty"`
	KeyAgreement         []*MethodRelation     `json:"keyAgreement,omitempty"`
	CapabilityInvocation []*MethodRelation     `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []*MethodRelation     `json:"capabilityDelegation,omitempty"`
	Service              []*Service            `json:"service,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (doc Document) MarshalJSON() ([]byte, error) {
	wire := documentJSON{
		ID:                   doc.ID,
		VerificationMethod:   doc.VerificationMethod,
		Authentication:       doc.Authentication,
		AssertionMethod:      doc.AssertionMethod,
		KeyAgreement:         doc.KeyAgreement,
		CapabilityInvocation: doc.CapabilityInvocation,
		CapabilityDelegation: doc.CapabilityDelegation,
		Service:              doc.Service,
	}
	if len(doc.Context) > 0 {
		wire.Context = doc.Context
	}
	switch len(doc.Controller) {
	case 0:
	case 1:
		wire.Controller = doc.Controller[0].String()
	default:
		ctrls := make([]string, len(doc.Controller))
		for i, c := range doc.Controller {
			ctrls[i] = c.String()
		}
		wire.Controller = ctrls
	}

	base, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	if len(doc.Properties) == 0 {
		return base, nil
	}

	var merged map[string]interface{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range doc.Properties {
		if _, reserved := merged[k]; !reserved {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON implements json.Unmarshaler.
func (doc *Document) UnmarshalJSON(data []byte) error {
	var wire documentJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to unmarshal DID document: %w", err)
	}

	doc.ID = wire.ID
	doc.VerificationMethod = wire.VerificationMethod
	doc.Authentication = wire.Authentication
	doc.AssertionMethod = wire.AssertionMethod
	doc.KeyAgreement = wire.KeyAgreement
	doc.CapabilityInvocation = wire.CapabilityInvocation
	doc.CapabilityDelegation = wire.CapabilityDelegation
	doc.Service = wire.Service

	doc.Context = nil
	switch ctx := wire.Context.(type) {
	case nil:
	case string:
		doc.Context = []interface{}{ctx}
	case []interface{}:
		doc.Context = ctx
	default:
		return fmt.Errorf("unsupported @context field: %T", wire.Context)
	}

	doc.Controller = nil
	switch ctrl := wire.Controller.(type) {
	case nil:
	case string:
		d, err := Parse(ctrl)
		if err != nil {
			return fmt.Errorf("failed to parse controller: %w", err)
		}
		doc.Controller = []DID{d}
	case []interface{}:
		for _, entry := range ctrl {
			s, ok := entry.(string)
			if !ok {
				return fmt.Errorf("controller entries must be strings, got %T", entry)
			}
			d, err := Parse(s)
			if err != nil {
				return fmt.Errorf("failed to parse controller: %w", err)
			}
			doc.Controller = append(doc.Controller, d)
		}
	default:
		return fmt.Errorf("unsupported controller field: %T", wire.Controller)
	}

	var rest map[string]interface{}
	if err := json.Unmarshal(data, &rest); err != nil {
		return fmt.Errorf("failed to unmarshal document properties: %w", err)
	}
	for _, reserved := range []string{
		"@context", "id", "controller", "verificationMethod",
		"authentication", "assertionMethod", "keyAgreement",
		"capabilityInvocation", "capabilityDelegation", "service",
	} {
		delete(rest, reserved)
	}
	doc.Properties = nil
	if len(rest) > 0 {
		doc.Properties = rest
	}

	return doc.Validate()
}
