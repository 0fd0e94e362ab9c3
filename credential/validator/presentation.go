package validator

import (
	"context"
	"fmt"

	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-identity-sdk/credential/common/jws"
	"github.com/pilacorp/go-identity-sdk/credential/vc"
	"github.com/pilacorp/go-identity-sdk/credential/vp"
	"github.com/pilacorp/go-identity-sdk/did"
)

// DecodedPresentation is the trusted result of a successful presentation
// validation, including every embedded credential's decoded form.
type DecodedPresentation struct {
	Claims      jsonmap.JSONMap
	Contents    vp.PresentationContents
	Credentials []*DecodedCredential
}

// ValidatePresentation validates a compact-JWT presentation: the holder's
// signature against the already resolved holder document, then every
// embedded credential against its issuer's document (resolved through
// issuers), then the subject-holder relationship.
//
// Issuer resolution failure is always fatal, never aggregated as a semantic
// error: without the issuer's document a credential's signature cannot be
// checked, so no partial result would be trustworthy.
func (v *Validator) ValidatePresentation(ctx context.Context, token string, holderDoc *did.Document, issuers DocumentResolver, opts PresentationValidationOptions, failFast FailFast) (*DecodedPresentation, error) {
	claims, contents, vErr := v.verifyPresentationToken(token, holderDoc, opts.Credential)
	if vErr != nil {
		return nil, &CompositeError{Errors: []*ValidationError{vErr}}
	}

	decoded := &DecodedPresentation{Claims: claims, Contents: contents}

	var errs []*ValidationError
	for i, credToken := range contents.Credentials {
		issuer, err := ExtractIssuer(credToken)
		if err != nil {
			return nil, fmt.Errorf("credential %d: %w", i, err)
		}
		issuerDoc, err := issuers.Resolve(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("credential %d: failed to resolve issuer %s: %w", i, issuer, err)
		}

		dc, err := v.ValidateCredential(ctx, credToken, issuerDoc, opts.Credential, failFast)
		if err != nil {
			composite, ok := err.(*CompositeError)
			if !ok {
				return nil, fmt.Errorf("credential %d: %w", i, err)
			}
			errs = append(errs, composite.Errors...)
			if failFast == FirstError {
				return nil, &CompositeError{Errors: errs}
			}
			continue
		}

		if vErr := checkSubjectHolder(dc.Contents, contents.Holder, opts.SubjectHolder); vErr != nil {
			errs = append(errs, vErr)
			if failFast == FirstError {
				return nil, &CompositeError{Errors: errs}
			}
			continue
		}

		decoded.Credentials = append(decoded.Credentials, dc)
	}

	if len(errs) > 0 {
		return nil, &CompositeError{Errors: errs}
	}
	return decoded, nil
}

// verifyPresentationToken performs the untrusted extraction, decode, and
// holder signature verification phase.
func (v *Validator) verifyPresentationToken(token string, holderDoc *did.Document, opts CredentialValidationOptions) (jsonmap.JSONMap, vp.PresentationContents, *ValidationError) {
	if holderDoc == nil {
		return nil, vp.PresentationContents{}, newError(KindIssuerExtraction, "holder document is required")
	}

	holder, err := ExtractHolder(token)
	if err != nil {
		return nil, vp.PresentationContents{}, wrapError(KindIssuerExtraction, err)
	}
	if !holder.Equal(holderDoc.ID) {
		return nil, vp.PresentationContents{}, newError(KindIssuerExtraction, "token holder %s does not match document %s", holder, holderDoc.ID)
	}

	decoded, err := jws.DecodeCompact(token, opts.ExpectedAlgorithm)
	if err != nil {
		return nil, vp.PresentationContents{}, wrapError(KindSignatureVerification, err)
	}

	if vErr := v.verifySignature(decoded, holderDoc, opts.ExpectedKid); vErr != nil {
		return nil, vp.PresentationContents{}, vErr
	}

	claims, err := jsonmap.FromJSON(decoded.Claims)
	if err != nil {
		return nil, vp.PresentationContents{}, wrapError(KindMalformedClaims, err)
	}
	contents, err := vp.ContentsFromClaims(claims)
	if err != nil {
		return nil, vp.PresentationContents{}, wrapError(KindMalformedClaims, err)
	}

	return claims, contents, nil
}

// checkSubjectHolder compares each credential subject to the presentation
// holder per the configured relationship.
func checkSubjectHolder(contents vc.CredentialContents, holder string, rel SubjectHolderRelationship) *ValidationError {
	switch rel {
	case Any:
		return nil
	case SubjectOnNonTransferable:
		if !contents.NonTransferable {
			return nil
		}
	}

	for _, subject := range contents.Subject {
		if subject.ID == "" || subject.ID != holder {
			return newError(KindSubjectHolderRelationship,
				"credential subject %q is not the presentation holder %q", subject.ID, holder)
		}
	}
	return nil
}
