package validator

import (
	"time"

	"github.com/pilacorp/go-identity-sdk/credential/common/jws"
)

// FailFast controls whether semantic checks stop at the first failure or run
// to completion while accumulating every failure.
type FailFast int

const (
	// FirstError returns as soon as one check fails, in the fixed check
	// order: signature, expiration, issuance, status, subject-holder.
	FirstError FailFast = iota

	// AllErrors runs every independent check and aggregates all failures.
	AllErrors
)

// StatusCheck controls how credentialStatus entries are treated.
type StatusCheck int

const (
	// StatusCheckStrict fails on unrecognized status types.
	StatusCheckStrict StatusCheck = iota

	// StatusCheckSkipUnsupported skips unrecognized status types but still
	// checks the supported ones.
	StatusCheckSkipUnsupported

	// StatusCheckSkipAll disables status checking entirely.
	StatusCheckSkipAll
)

// SubjectHolderRelationship controls how credential subjects are compared to
// the presentation holder.
type SubjectHolderRelationship int

const (
	// AlwaysSubject requires every credential subject to be the holder.
	AlwaysSubject SubjectHolderRelationship = iota

	// SubjectOnNonTransferable requires subjects to be the holder only for
	// credentials flagged nonTransferable.
	SubjectOnNonTransferable

	// Any disables the subject-holder check.
	Any
)

// CredentialValidationOptions configures a single credential validation call.
// The zero value checks expiry and issuance against the current time with
// strict status handling.
type CredentialValidationOptions struct {
	// EarliestExpiry is the instant the credential must still be valid at.
	// Zero means time.Now at the moment of validation.
	EarliestExpiry time.Time

	// LatestIssuance is the latest acceptable issuance instant. Zero means
	// time.Now at the moment of validation.
	LatestIssuance time.Time

	// Status controls credentialStatus handling.
	Status StatusCheck

	// ExpectedAlgorithm, when non-empty, rejects tokens whose alg header
	// differs before any signature work.
	ExpectedAlgorithm jws.Algorithm

	// ExpectedKid, when non-empty, requires the token's kid header to match
	// exactly. Otherwise any method in the issuer document may sign.
	ExpectedKid string
}

// PresentationValidationOptions configures a presentation validation call.
type PresentationValidationOptions struct {
	// Credential applies to every embedded credential.
	Credential CredentialValidationOptions

	// SubjectHolder controls the subject-holder relationship check.
	SubjectHolder SubjectHolderRelationship
}

func (o CredentialValidationOptions) earliestExpiry() time.Time {
	if o.EarliestExpiry.IsZero() {
		return time.Now()
	}
	return o.EarliestExpiry
}

func (o CredentialValidationOptions) latestIssuance() time.Time {
	if o.LatestIssuance.IsZero() {
		return time.Now()
	}
	return o.LatestIssuance
}
