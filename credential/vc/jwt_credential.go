package vc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-identity-sdk/credential/common/jws"
)

// JWTCredential is a credential in compact-JWT form: the credential JSON is
// carried in the vc claim, mirrored by the registered claims
// (iss/sub/exp/nbf/iat/jti).
type JWTCredential struct {
	signingInput string          // header.payload, base64url encoded
	signature    string          // base64url signature, empty until signed
	claims       jsonmap.JSONMap // full JWT claims
	payload      jsonmap.JSONMap // the vc claim
}

// NewJWTCredential builds an unsigned JWT credential from structured
// contents. A missing credential ID is filled with a fresh urn:uuid.
func NewJWTCredential(vcc CredentialContents, opts ...CredentialOpt) (*JWTCredential, error) {
	options := getOptions(opts...)

	if vcc.ID == "" {
		vcc.ID = NewID()
	}
	if vcc.Issuer == "" {
		return nil, fmt.Errorf("credential issuer is required")
	}

	m, err := serializeCredentialContents(&vcc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize credential contents: %w", err)
	}

	if options.validateSchema {
		if err := ValidateSchema(m); err != nil {
			return nil, fmt.Errorf("failed to validate credential: %w", err)
		}
	}

	claims := jsonmap.JSONMap{
		"vc":  map[string]interface{}(m),
		"iss": vcc.Issuer,
		"jti": vcc.ID,
	}
	if len(vcc.Subject) > 0 && vcc.Subject[0].ID != "" {
		claims["sub"] = vcc.Subject[0].ID
	}
	if !vcc.ValidUntil.IsZero() {
		claims["exp"] = vcc.ValidUntil.Unix()
	}
	if !vcc.ValidFrom.IsZero() {
		claims["iat"] = vcc.ValidFrom.Unix()
		claims["nbf"] = vcc.ValidFrom.Unix()
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claims: %w", err)
	}

	header := jws.NewHeader(jws.ES256K)
	header.SetTyp("JWT")
	header.SetKid(fmt.Sprintf("%s#%s", vcc.Issuer, options.keyFragment))

	encoder, err := jws.NewCompactEncoder(claimsJSON, header)
	if err != nil {
		return nil, fmt.Errorf("failed to build signing input: %w", err)
	}

	return &JWTCredential{
		signingInput: string(encoder.SigningInput()),
		claims:       claims,
		payload:      m,
	}, nil
}

// ParseJWTCredential parses a compact-JWT credential. The signature, if any,
// is retained but not verified here; verification is the validator's job.
func ParseJWTCredential(rawJWT string, opts ...CredentialOpt) (*JWTCredential, error) {
	options := getOptions(opts...)

	rawJWT = strings.Trim(rawJWT, `"`)
	if !IsJWT(rawJWT) {
		return nil, fmt.Errorf("invalid JWT format")
	}

	parts := strings.Split(rawJWT, ".")
	claimsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	claims, err := jsonmap.FromJSON(claimsBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	vcData, ok := claims["vc"]
	if !ok {
		return nil, fmt.Errorf("vc claim not found in JWT payload")
	}
	vcMap, ok := vcData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vc claim is not a valid JSON object")
	}

	if options.validateSchema {
		if err := ValidateSchema(vcMap); err != nil {
			return nil, fmt.Errorf("failed to validate credential: %w", err)
		}
	}

	return &JWTCredential{
		signingInput: parts[0] + "." + parts[1],
		signature:    parts[2],
		claims:       claims,
		payload:      jsonmap.JSONMap(vcMap),
	}, nil
}

// Sign signs the credential's signing input.
func (j *JWTCredential) Sign(signer *jws.Signer) error {
	signature, err := signer.SignString(j.signingInput)
	if err != nil {
		return fmt.Errorf("failed to sign signing input: %w", err)
	}
	j.signature = signature
	return nil
}

// SigningInput returns the header.payload signing input.
func (j *JWTCredential) SigningInput() string {
	return j.signingInput
}

// Signature returns the base64url signature, empty for an unsigned credential.
func (j *JWTCredential) Signature() string {
	return j.signature
}

// Serialize returns the compact JWT string.
func (j *JWTCredential) Serialize() (string, error) {
	if j.signature == "" {
		return "", fmt.Errorf("credential is not signed")
	}
	return j.signingInput + "." + j.signature, nil
}

// Claims returns the full JWT claims, including the vc claim.
func (j *JWTCredential) Claims() jsonmap.JSONMap {
	return j.claims
}

// Payload returns the vc claim as a JSON map.
func (j *JWTCredential) Payload() jsonmap.JSONMap {
	return j.payload
}

// Contents parses the credential into its structured form, with the
// registered JWT claims taking precedence over the vc claim.
func (j *JWTCredential) Contents() (CredentialContents, error) {
	return ContentsFromClaims(j.claims)
}

// ContentsFromClaims builds CredentialContents from decoded JWT claims: the
// vc claim supplies the credential body, and the registered claims
// (iss, sub, jti, exp, nbf, iat) override the corresponding fields.
func ContentsFromClaims(claims jsonmap.JSONMap) (CredentialContents, error) {
	vcData, ok := claims["vc"].(map[string]interface{})
	if !ok {
		return CredentialContents{}, fmt.Errorf("vc claim is missing or not an object")
	}

	contents, err := ContentsFromMap(vcData)
	if err != nil {
		return CredentialContents{}, err
	}

	if iss, ok := claims["iss"].(string); ok && iss != "" {
		contents.Issuer = iss
	}
	if jti, ok := claims["jti"].(string); ok && jti != "" {
		contents.ID = jti
	}
	if exp, ok := numericClaim(claims["exp"]); ok {
		contents.ValidUntil = time.Unix(exp, 0).UTC()
	}
	if nbf, ok := numericClaim(claims["nbf"]); ok {
		contents.ValidFrom = time.Unix(nbf, 0).UTC()
	} else if iat, ok := numericClaim(claims["iat"]); ok {
		contents.ValidFrom = time.Unix(iat, 0).UTC()
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" && len(contents.Subject) == 0 {
		contents.Subject = []Subject{{ID: sub}}
	}
	return contents, nil
}

// numericClaim reads a JWT NumericDate claim, which decodes from JSON as a
// float64 but may be an int64 when the claims map was built in-process.
func numericClaim(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
