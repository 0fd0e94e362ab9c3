// Package validator implements the credential and presentation validation
// engine: decode a compact JWT, verify its signature against a resolved DID
// document, and run the semantic checks (expiry, issuance, revocation
// status, subject-holder relationship) under a fail-fast or
// accumulate-errors policy.
//
// The engine follows a two-phase trust model: the issuer DID is extracted
// from the unverified claims so a document can be resolved and a
// verification method selected, but nothing in the payload is trusted until
// the signature check succeeds. No semantic check result is ever surfaced
// for a token whose signature did not verify.
package validator

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-identity-sdk/credential/common/jws"
	"github.com/pilacorp/go-identity-sdk/credential/vc"
	"github.com/pilacorp/go-identity-sdk/did"
	"github.com/pilacorp/go-identity-sdk/revocation"
)

// DocumentResolver resolves a DID to its document. *resolver.Resolver
// satisfies this interface.
type DocumentResolver interface {
	Resolve(ctx context.Context, d did.DID) (*did.Document, error)
}

// Validator validates credentials and presentations. It performs no DID
// resolution of its own for credentials: the caller supplies the resolved
// issuer document, which keeps single-credential validation network-free.
type Validator struct {
	verifier    jws.SignatureVerifier
	statusLists StatusListFetcher
}

// Option configures a Validator.
type Option func(*Validator)

// WithSignatureVerifier overrides the JWS signature verifier.
func WithSignatureVerifier(verifier jws.SignatureVerifier) Option {
	return func(v *Validator) {
		v.verifier = verifier
	}
}

// WithStatusListFetcher overrides how StatusList2021 credentials are fetched.
func WithStatusListFetcher(fetcher StatusListFetcher) Option {
	return func(v *Validator) {
		v.statusLists = fetcher
	}
}

// New creates a Validator with the default verifier set (EdDSA and the ECDSA
// family) and an HTTP status list fetcher.
func New(opts ...Option) *Validator {
	v := &Validator{
		verifier:    jws.NewDefaultVerifier(),
		statusLists: NewHTTPStatusListFetcher(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// DecodedCredential is the trusted result of a successful validation.
type DecodedCredential struct {
	Claims   jsonmap.JSONMap
	Contents vc.CredentialContents
}

// ExtractIssuer reads the issuer DID from a token's unverified claims (the
// iss claim, falling back to vc.issuer). The returned DID is needed to
// resolve a document and pick a verification method, but it must not be
// trusted until the token's signature has been verified.
func ExtractIssuer(token string) (did.DID, error) {
	claims, err := unverifiedClaims(token)
	if err != nil {
		return did.DID{}, fmt.Errorf("failed to extract issuer: %w", err)
	}

	issuer, _ := claims["iss"].(string)
	if issuer == "" {
		if vcMap, ok := claims["vc"].(map[string]interface{}); ok {
			issuer, _ = vcMap["issuer"].(string)
		}
	}
	if issuer == "" {
		return did.DID{}, fmt.Errorf("token has no issuer claim")
	}

	d, err := did.Parse(issuer)
	if err != nil {
		return did.DID{}, fmt.Errorf("token issuer is not a valid DID: %w", err)
	}
	return d, nil
}

// ExtractHolder reads the holder DID from a presentation token's unverified
// claims (the iss claim). Untrusted until the signature is verified.
func ExtractHolder(token string) (did.DID, error) {
	claims, err := unverifiedClaims(token)
	if err != nil {
		return did.DID{}, fmt.Errorf("failed to extract holder: %w", err)
	}

	holder, _ := claims["iss"].(string)
	if holder == "" {
		if vpMap, ok := claims["vp"].(map[string]interface{}); ok {
			holder, _ = vpMap["holder"].(string)
		}
	}
	if holder == "" {
		return did.DID{}, fmt.Errorf("token has no holder claim")
	}

	d, err := did.Parse(holder)
	if err != nil {
		return did.DID{}, fmt.Errorf("token holder is not a valid DID: %w", err)
	}
	return d, nil
}

func unverifiedClaims(token string) (jsonmap.JSONMap, error) {
	parts := strings.Split(strings.Trim(token, `"`), ".")
	if len(parts) != 3 {
		return nil, jws.ErrInvalidSegmentCount
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload segment: %w", err)
	}
	return jsonmap.FromJSON(payload)
}

// ValidateCredential validates a compact-JWT credential against the already
// resolved issuer document. It returns the trusted decoded credential, or a
// *CompositeError aggregating every failed check per the failFast policy.
func (v *Validator) ValidateCredential(ctx context.Context, token string, issuerDoc *did.Document, opts CredentialValidationOptions, failFast FailFast) (*DecodedCredential, error) {
	decoded, contents, vErr := v.verifyCredentialToken(token, issuerDoc, opts)
	if vErr != nil {
		// Signature trust is a gate: semantic checks on an unverified
		// payload are meaningless, so structural and signature failures
		// are always reported alone.
		return nil, &CompositeError{Errors: []*ValidationError{vErr}}
	}

	checks := []func() *ValidationError{
		func() *ValidationError { return checkExpiration(contents, opts) },
		func() *ValidationError { return checkIssuance(contents, opts) },
		func() *ValidationError { return v.checkStatus(ctx, contents, issuerDoc, opts) },
	}

	if errs := runChecks(checks, failFast); len(errs) > 0 {
		return nil, &CompositeError{Errors: errs}
	}

	return &DecodedCredential{Claims: decoded, Contents: contents}, nil
}

// verifyCredentialToken performs the untrusted extraction, decode, and
// signature verification phase. On success the returned claims and contents
// are trusted.
func (v *Validator) verifyCredentialToken(token string, issuerDoc *did.Document, opts CredentialValidationOptions) (jsonmap.JSONMap, vc.CredentialContents, *ValidationError) {
	if issuerDoc == nil {
		return nil, vc.CredentialContents{}, newError(KindIssuerExtraction, "issuer document is required")
	}

	issuer, err := ExtractIssuer(token)
	if err != nil {
		return nil, vc.CredentialContents{}, wrapError(KindIssuerExtraction, err)
	}
	if !issuer.Equal(issuerDoc.ID) {
		return nil, vc.CredentialContents{}, newError(KindIssuerExtraction, "token issuer %s does not match document %s", issuer, issuerDoc.ID)
	}

	decoded, err := jws.DecodeCompact(token, opts.ExpectedAlgorithm)
	if err != nil {
		return nil, vc.CredentialContents{}, wrapError(KindSignatureVerification, err)
	}

	if vErr := v.verifySignature(decoded, issuerDoc, opts.ExpectedKid); vErr != nil {
		return nil, vc.CredentialContents{}, vErr
	}

	claims, err := jsonmap.FromJSON(decoded.Claims)
	if err != nil {
		return nil, vc.CredentialContents{}, wrapError(KindMalformedClaims, err)
	}
	contents, err := vc.ContentsFromClaims(claims)
	if err != nil {
		return nil, vc.CredentialContents{}, wrapError(KindMalformedClaims, err)
	}

	return claims, contents, nil
}

// verifySignature resolves the token's kid to a verification method in the
// document and checks the signature against its public key. A non-empty
// expectedKid pins the token to that exact method.
func (v *Validator) verifySignature(decoded *jws.Decoded, doc *did.Document, expectedKid string) *ValidationError {
	kid := decoded.Header.Kid()
	if kid == "" {
		return newError(KindMethodNotFound, "token has no kid header")
	}
	if expectedKid != "" && kid != expectedKid {
		return newError(KindMethodNotFound, "kid %q does not match expected %q", kid, expectedKid)
	}

	kidURL, err := did.ParseURL(kid)
	if err != nil {
		return newError(KindMethodNotFound, "invalid kid %q: %v", kid, err)
	}
	if !kidURL.DID().Equal(doc.ID) {
		return newError(KindMethodNotFound, "kid %q does not belong to document %s", kid, doc.ID)
	}

	method := doc.ResolveMethod(kidURL.Fragment(), did.RelationshipNone)
	if method == nil {
		return newError(KindMethodNotFound, "no verification method %q in document %s", kidURL.Fragment(), doc.ID)
	}

	publicKey, err := method.PublicKeyBytes()
	if err != nil {
		return wrapError(KindInvalidMethodType, err)
	}

	if err := decoded.Verify(v.verifier, publicKey); err != nil {
		return wrapError(KindSignatureVerification, err)
	}
	return nil
}

func checkExpiration(contents vc.CredentialContents, opts CredentialValidationOptions) *ValidationError {
	if contents.ValidUntil.IsZero() {
		return nil
	}
	if contents.ValidUntil.Before(opts.earliestExpiry()) {
		return newError(KindExpired, "credential expired at %s", contents.ValidUntil)
	}
	return nil
}

func checkIssuance(contents vc.CredentialContents, opts CredentialValidationOptions) *ValidationError {
	if contents.ValidFrom.IsZero() {
		return nil
	}
	if contents.ValidFrom.After(opts.latestIssuance()) {
		return newError(KindIssuedInFuture, "credential issued at %s", contents.ValidFrom)
	}
	return nil
}

// checkStatus consults the revocation mechanism referenced by each
// credentialStatus entry: a RevocationBitmap2022 service embedded in the
// issuer's document, or a fetched StatusList2021Credential.
func (v *Validator) checkStatus(ctx context.Context, contents vc.CredentialContents, issuerDoc *did.Document, opts CredentialValidationOptions) *ValidationError {
	if opts.Status == StatusCheckSkipAll {
		return nil
	}

	for _, status := range contents.CredentialStatus {
		switch status.Type {
		case revocation.BitmapServiceType:
			if vErr := v.checkBitmapStatus(status, issuerDoc); vErr != nil {
				return vErr
			}
		case revocation.StatusList2021EntryType:
			if vErr := v.checkStatusListEntry(ctx, status); vErr != nil {
				return vErr
			}
		default:
			if opts.Status == StatusCheckStrict {
				return newError(KindInvalidStatus, "unrecognized credentialStatus type %q", status.Type)
			}
		}
	}
	return nil
}

func (v *Validator) checkBitmapStatus(status vc.Status, issuerDoc *did.Document) *ValidationError {
	statusURL, err := did.ParseURL(status.ID)
	if err != nil {
		return newError(KindInvalidStatus, "invalid status id %q: %v", status.ID, err)
	}
	if !statusURL.DID().Equal(issuerDoc.ID) {
		return newError(KindInvalidStatus, "status id %q does not reference the issuer document", status.ID)
	}

	service := issuerDoc.ResolveService(statusURL.Fragment())
	if service == nil {
		return newError(KindInvalidStatus, "no service %q in issuer document", statusURL.Fragment())
	}

	bitmap, err := revocation.BitmapFromService(service)
	if err != nil {
		return wrapError(KindInvalidStatus, err)
	}

	index, err := strconv.ParseUint(status.RevocationBitmapIndex, 10, 32)
	if err != nil {
		return newError(KindInvalidStatus, "invalid revocationBitmapIndex %q", status.RevocationBitmapIndex)
	}

	if bitmap.IsRevoked(uint32(index)) {
		return newError(KindRevoked, "credential index %d is revoked", index)
	}
	return nil
}

func (v *Validator) checkStatusListEntry(ctx context.Context, status vc.Status) *ValidationError {
	entry := revocation.Entry{
		ID:                   status.ID,
		Type:                 status.Type,
		StatusPurpose:        status.StatusPurpose,
		StatusListIndex:      status.StatusListIndex,
		StatusListCredential: status.StatusListCredential,
	}
	if err := entry.Validate(); err != nil {
		return wrapError(KindInvalidStatus, err)
	}

	cred, err := v.statusLists.FetchStatusList(ctx, entry.StatusListCredential)
	if err != nil {
		return wrapError(KindInvalidStatus, err)
	}
	if cred.CredentialSubject.StatusPurpose != entry.StatusPurpose {
		return newError(KindInvalidStatus, "status purpose %q does not match list purpose %q",
			entry.StatusPurpose, cred.CredentialSubject.StatusPurpose)
	}

	list, err := cred.List()
	if err != nil {
		return wrapError(KindInvalidStatus, err)
	}
	index, err := entry.Index()
	if err != nil {
		return wrapError(KindInvalidStatus, err)
	}
	set, err := list.IsSet(index)
	if err != nil {
		return wrapError(KindInvalidStatus, err)
	}
	if set {
		return newError(KindRevoked, "credential status bit %d is set (%s)", index, entry.StatusPurpose)
	}
	return nil
}

// runChecks executes the ordered checks, stopping at the first failure under
// FirstError or accumulating every failure under AllErrors.
func runChecks(checks []func() *ValidationError, failFast FailFast) []*ValidationError {
	var errs []*ValidationError
	for _, check := range checks {
		if vErr := check(); vErr != nil {
			errs = append(errs, vErr)
			if failFast == FirstError {
				return errs
			}
		}
	}
	return errs
}
