package validator

import (
	"fmt"
	"strings"
)

// Kind identifies which validation check produced an error.
type Kind int

const (
	// KindIssuerExtraction: the issuer DID could not be extracted from the
	// token's unverified claims, or does not match the supplied document.
	KindIssuerExtraction Kind = iota

	// KindMethodNotFound: the token's kid does not resolve to a verification
	// method in the issuer's document.
	KindMethodNotFound

	// KindInvalidMethodType: the resolved method has no usable key material
	// for the token's algorithm.
	KindInvalidMethodType

	// KindSignatureVerification: the token is malformed or its signature does
	// not verify.
	KindSignatureVerification

	// KindMalformedClaims: the verified payload does not parse as a
	// credential or presentation.
	KindMalformedClaims

	// KindExpired: the credential expired before the configured earliest
	// expiry date.
	KindExpired

	// KindIssuedInFuture: the credential's issuance date is after the
	// configured latest issuance date.
	KindIssuedInFuture

	// KindRevoked: the credential's status bit is set.
	KindRevoked

	// KindInvalidStatus: the credentialStatus entry is malformed,
	// unresolvable, or of an unrecognized type under the Strict policy.
	KindInvalidStatus

	// KindSubjectHolderRelationship: a credential subject does not match the
	// presentation holder per the configured relationship.
	KindSubjectHolderRelationship
)

func (k Kind) String() string {
	switch k {
	case KindIssuerExtraction:
		return "issuer extraction"
	case KindMethodNotFound:
		return "method not found"
	case KindInvalidMethodType:
		return "invalid method type"
	case KindSignatureVerification:
		return "signature verification"
	case KindMalformedClaims:
		return "malformed claims"
	case KindExpired:
		return "expired"
	case KindIssuedInFuture:
		return "issued in the future"
	case KindRevoked:
		return "revoked"
	case KindInvalidStatus:
		return "invalid status"
	case KindSubjectHolderRelationship:
		return "subject-holder relationship"
	default:
		return "unknown"
	}
}

// ValidationError is a single failed validation check.
type ValidationError struct {
	Kind  Kind
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

func wrapError(kind Kind, cause error) *ValidationError {
	return &ValidationError{Kind: kind, Cause: cause}
}

// CompositeError aggregates one or more validation errors. It is never empty:
// a validation call returns either a decoded result or a CompositeError,
// never both.
type CompositeError struct {
	Errors []*ValidationError
}

func (e *CompositeError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether any aggregated error has the given kind.
func (e *CompositeError) Has(kind Kind) bool {
	for _, err := range e.Errors {
		if err.Kind == kind {
			return true
		}
	}
	return false
}
