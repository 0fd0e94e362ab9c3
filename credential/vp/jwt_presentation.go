package vp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-identity-sdk/credential/common/jws"
	"github.com/pilacorp/go-identity-sdk/credential/vc"
)

// JWTPresentation is a presentation in compact-JWT form: the presentation
// JSON is carried in the vp claim, with iss/sub set to the holder.
type JWTPresentation struct {
	signingInput string
	signature    string
	claims       jsonmap.JSONMap
	payload      jsonmap.JSONMap // the vp claim
}

// NewJWTPresentation builds an unsigned JWT presentation from structured
// contents. A missing presentation ID is filled with a fresh urn:uuid.
func NewJWTPresentation(vpc PresentationContents, opts ...PresentationOpt) (*JWTPresentation, error) {
	options := getOptions(opts...)

	if vpc.Holder == "" {
		return nil, fmt.Errorf("presentation holder is required")
	}
	if vpc.ID == "" {
		vpc.ID = NewID()
	}

	m, err := serializePresentationContents(&vpc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize presentation contents: %w", err)
	}

	claims := jsonmap.JSONMap{
		"vp":  map[string]interface{}(m),
		"iss": vpc.Holder,
		"sub": vpc.Holder,
		"jti": vpc.ID,
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claims: %w", err)
	}

	header := jws.NewHeader(jws.ES256K)
	header.SetTyp("JWT")
	header.SetKid(fmt.Sprintf("%s#%s", vpc.Holder, options.keyFragment))

	encoder, err := jws.NewCompactEncoder(claimsJSON, header)
	if err != nil {
		return nil, fmt.Errorf("failed to build signing input: %w", err)
	}

	return &JWTPresentation{
		signingInput: string(encoder.SigningInput()),
		claims:       claims,
		payload:      m,
	}, nil
}

// ParseJWTPresentation parses a compact-JWT presentation. The signature, if
// any, is retained but not verified here.
func ParseJWTPresentation(rawJWT string, opts ...PresentationOpt) (*JWTPresentation, error) {
	rawJWT = strings.Trim(rawJWT, `"`)
	if !vc.IsJWT(rawJWT) {
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

	vpData, ok := claims["vp"]
	if !ok {
		return nil, fmt.Errorf("vp claim not found in JWT payload")
	}
	vpMap, ok := vpData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vp claim is not a valid JSON object")
	}

	return &JWTPresentation{
		signingInput: parts[0] + "." + parts[1],
		signature:    parts[2],
		claims:       claims,
		payload:      jsonmap.JSONMap(vpMap),
	}, nil
}

// Sign signs the presentation's signing input with the holder's key.
func (j *JWTPresentation) Sign(signer *jws.Signer) error {
	signature, err := signer.SignString(j.signingInput)
	if err != nil {
		return fmt.Errorf("failed to sign signing input: %w", err)
	}
	j.signature = signature
	return nil
}

// SigningInput returns the header.payload signing input.
func (j *JWTPresentation) SigningInput() string {
	return j.signingInput
}

// Signature returns the base64url signature, empty for an unsigned
// presentation.
func (j *JWTPresentation) Signature() string {
	return j.signature
}

// Serialize returns the compact JWT string.
func (j *JWTPresentation) Serialize() (string, error) {
	if j.signature == "" {
		return "", fmt.Errorf("presentation is not signed")
	}
	return j.signingInput + "." + j.signature, nil
}

// Claims returns the full JWT claims, including the vp claim.
func (j *JWTPresentation) Claims() jsonmap.JSONMap {
	return j.claims
}

// Payload returns the vp claim as a JSON map.
func (j *JWTPresentation) Payload() jsonmap.JSONMap {
	return j.payload
}

// Contents parses the presentation into its structured form, with the iss
// and jti claims overriding the holder and id fields.
func (j *JWTPresentation) Contents() (PresentationContents, error) {
	return ContentsFromClaims(j.claims)
}

// ContentsFromClaims builds PresentationContents from decoded JWT claims.
func ContentsFromClaims(claims jsonmap.JSONMap) (PresentationContents, error) {
	vpData, ok := claims["vp"].(map[string]interface{})
	if !ok {
		return PresentationContents{}, fmt.Errorf("vp claim is missing or not an object")
	}

	contents, err := ContentsFromMap(vpData)
	if err != nil {
		return PresentationContents{}, err
	}

	if iss, ok := claims["iss"].(string); ok && iss != "" {
		contents.Holder = iss
	}
	if jti, ok := claims["jti"].(string); ok && jti != "" {
		contents.ID = jti
	}
	return contents, nil
}
