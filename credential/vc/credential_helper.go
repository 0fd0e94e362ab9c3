package vc

import (
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
)

// serializeCredentialContents serializes CredentialContents into a JSON map.
func serializeCredentialContents(vcc *CredentialContents) (jsonmap.JSONMap, error) {
	if vcc == nil {
		return nil, fmt.Errorf("credential contents is nil")
	}

	vcJSON := make(jsonmap.JSONMap)
	if len(vcc.Context) > 0 {
		vcJSON["@context"] = vcc.Context
	}
	if vcc.ID != "" {
		vcJSON["id"] = vcc.ID
	}
	if len(vcc.Types) > 0 {
		vcJSON["type"] = serializeTypes(vcc.Types)
	}
	if len(vcc.Subject) > 0 {
		vcJSON["credentialSubject"] = serializeSubjects(vcc.Subject)
	}
	if vcc.Issuer != "" {
		vcJSON["issuer"] = vcc.Issuer
	}
	if len(vcc.Schemas) > 0 {
		vcJSON["credentialSchema"] = serializeSchemas(vcc.Schemas)
	}
	if len(vcc.CredentialStatus) > 0 {
		vcJSON["credentialStatus"] = serializeStatuses(vcc.CredentialStatus)
	}
	if !vcc.ValidFrom.IsZero() {
		vcJSON["validFrom"] = vcc.ValidFrom.UTC().Format(time.RFC3339)
	}
	if !vcc.ValidUntil.IsZero() {
		vcJSON["validUntil"] = vcc.ValidUntil.UTC().Format(time.RFC3339)
	}
	if vcc.NonTransferable {
		vcJSON["nonTransferable"] = true
	}
	return vcJSON, nil
}

// serializeTypes converts a slice of type strings to the single-or-array
// JSON-LD form.
func serializeTypes(types []string) interface{} {
	if len(types) == 0 {
		return nil
	}
	if len(types) == 1 {
		return types[0]
	}
	result := make([]interface{}, len(types))
	for i, t := range types {
		result[i] = t
	}
	return result
}

// serializeSubjects converts a slice of Subject structs to a JSON-LD compatible format.
func serializeSubjects(subjects []Subject) interface{} {
	if len(subjects) == 1 {
		return serializeSubject(subjects[0])
	}
	result := make([]jsonmap.JSONMap, len(subjects))
	for i, s := range subjects {
		result[i] = serializeSubject(s)
	}
	return result
}

func serializeSubject(subject Subject) jsonmap.JSONMap {
	jsonObj := jsonmap.ShallowCopy(subject.CustomFields)
	if subject.ID != "" {
		jsonObj["id"] = subject.ID
	}
	return jsonObj
}

// serializeSchemas converts a slice of Schema structs to a JSON-LD compatible format.
func serializeSchemas(schemas []Schema) interface{} {
	if len(schemas) == 1 {
		return serializeSchema(schemas[0])
	}
	result := make([]jsonmap.JSONMap, len(schemas))
	for i, s := range schemas {
		result[i] = serializeSchema(s)
	}
	return result
}

func serializeSchema(schema Schema) jsonmap.JSONMap {
	return jsonmap.JSONMap{
		"id":   schema.ID,
		"type": schema.Type,
	}
}

// serializeStatuses converts a slice of Status structs to a JSON-LD compatible format.
func serializeStatuses(statuses []Status) interface{} {
	if len(statuses) == 1 {
		return serializeStatus(statuses[0])
	}
	result := make([]jsonmap.JSONMap, len(statuses))
	for i, s := range statuses {
		result[i] = serializeStatus(s)
	}
	return result
}

func serializeStatus(status Status) jsonmap.JSONMap {
	result := make(jsonmap.JSONMap)
	if status.ID != "" {
		result["id"] = status.ID
	}
	if status.Type != "" {
		result["type"] = status.Type
	}
	if status.StatusPurpose != "" {
		result["statusPurpose"] = status.StatusPurpose
	}
	if status.StatusListIndex != "" {
		result["statusListIndex"] = status.StatusListIndex
	}
	if status.StatusListCredential != "" {
		result["statusListCredential"] = status.StatusListCredential
	}
	if status.RevocationBitmapIndex != "" {
		result["revocationBitmapIndex"] = status.RevocationBitmapIndex
	}
	return result
}

// ContentsFromMap parses the JSON form of a credential into CredentialContents.
func ContentsFromMap(m jsonmap.JSONMap) (CredentialContents, error) {
	var contents CredentialContents

	parsers := []func(jsonmap.JSONMap, *CredentialContents) error{
		parseContext,
		parseID,
		parseTypes,
		parseIssuer,
		parseDates,
		parseSubject,
		parseSchema,
		parseStatus,
		parseNonTransferable,
	}
	for _, parse := range parsers {
		if err := parse(m, &contents); err != nil {
			return CredentialContents{}, err
		}
	}
	return contents, nil
}

func parseContext(c jsonmap.JSONMap, contents *CredentialContents) error {
	if context, ok := c["@context"].([]interface{}); ok {
		for _, ctx := range context {
			switch v := ctx.(type) {
			case string, map[string]interface{}:
				contents.Context = append(contents.Context, v)
			default:
				return fmt.Errorf("unsupported context type: %T", v)
			}
		}
	} else if context, ok := c["@context"].(string); ok {
		contents.Context = append(contents.Context, context)
	}
	return nil
}

func parseID(c jsonmap.JSONMap, contents *CredentialContents) error {
	if id, ok := c["id"].(string); ok {
		contents.ID = id
	}
	return nil
}

func parseTypes(c jsonmap.JSONMap, contents *CredentialContents) error {
	switch v := c["type"].(type) {
	case nil:
	case string:
		contents.Types = append(contents.Types, v)
	case []interface{}:
		for _, t := range v {
			if typeStr, ok := t.(string); ok {
				contents.Types = append(contents.Types, typeStr)
			}
		}
	default:
		return fmt.Errorf("unsupported type field: %T", v)
	}
	return nil
}

func parseIssuer(c jsonmap.JSONMap, contents *CredentialContents) error {
	switch issuer := c["issuer"].(type) {
	case string:
		contents.Issuer = issuer
	case map[string]interface{}:
		if id, ok := issuer["id"].(string); ok {
			contents.Issuer = id
		}
	}
	return nil
}

func parseDates(c jsonmap.JSONMap, contents *CredentialContents) error {
	if validFrom, ok := c["validFrom"].(string); ok {
		t, err := time.Parse(time.RFC3339, validFrom)
		if err != nil {
			return fmt.Errorf("failed to parse validFrom: %w", err)
		}
		contents.ValidFrom = t
	} else if issuanceDate, ok := c["issuanceDate"].(string); ok {
		t, err := time.Parse(time.RFC3339, issuanceDate)
		if err != nil {
			return fmt.Errorf("failed to parse issuanceDate: %w", err)
		}
		contents.ValidFrom = t
	}
	if validUntil, ok := c["validUntil"].(string); ok {
		t, err := time.Parse(time.RFC3339, validUntil)
		if err != nil {
			return fmt.Errorf("failed to parse validUntil: %w", err)
		}
		contents.ValidUntil = t
	} else if expirationDate, ok := c["expirationDate"].(string); ok {
		t, err := time.Parse(time.RFC3339, expirationDate)
		if err != nil {
			return fmt.Errorf("failed to parse expirationDate: %w", err)
		}
		contents.ValidUntil = t
	}
	return nil
}

func parseSubject(c jsonmap.JSONMap, contents *CredentialContents) error {
	subjectRaw := c["credentialSubject"]
	if subjectRaw == nil {
		return nil
	}

	switch subject := subjectRaw.(type) {
	case string:
		contents.Subject = []Subject{{ID: subject}}
	case map[string]interface{}:
		parsed, err := SubjectFromMap(subject)
		if err != nil {
			return fmt.Errorf("failed to parse subject: %w", err)
		}
		contents.Subject = []Subject{parsed}
	case []interface{}:
		subjects := make([]Subject, 0, len(subject))
		for _, raw := range subject {
			sub, ok := raw.(map[string]interface{})
			if !ok {
				return fmt.Errorf("unsupported subject format: %T", raw)
			}
			parsed, err := SubjectFromMap(sub)
			if err != nil {
				return fmt.Errorf("failed to parse subjects array: %w", err)
			}
			subjects = append(subjects, parsed)
		}
		contents.Subject = subjects
	default:
		return fmt.Errorf("unsupported subject format: %T", subject)
	}
	return nil
}

// SubjectFromMap creates a credential subject from a JSON object.
func SubjectFromMap(subjectObj map[string]interface{}) (Subject, error) {
	flds, rest := jsonmap.Split(subjectObj, "id")
	id, err := jsonmap.StringField(flds, "id")
	if err != nil {
		return Subject{}, fmt.Errorf("failed to parse subject id: %w", err)
	}
	return Subject{ID: id, CustomFields: rest}, nil
}

func parseSchema(c jsonmap.JSONMap, contents *CredentialContents) error {
	schemaRaw := c["credentialSchema"]
	if schemaRaw == nil {
		return nil
	}

	switch schema := schemaRaw.(type) {
	case map[string]interface{}:
		parsed, err := parseSchemaEntry(schema)
		if err != nil {
			return fmt.Errorf("failed to parse schema: %w", err)
		}
		contents.Schemas = append(contents.Schemas, parsed)
	case []interface{}:
		for _, raw := range schema {
			parsed, err := parseSchemaEntry(raw)
			if err != nil {
				return fmt.Errorf("failed to parse schema: %w", err)
			}
			contents.Schemas = append(contents.Schemas, parsed)
		}
	default:
		return fmt.Errorf("unsupported schema format: %T", schema)
	}
	return nil
}

func parseSchemaEntry(value interface{}) (Schema, error) {
	var schema Schema
	switch v := value.(type) {
	case string:
		schema.ID = v
	case map[string]interface{}:
		if id, ok := v["id"].(string); ok {
			schema.ID = id
		}
		if t, ok := v["type"].(string); ok {
			schema.Type = t
		}
	default:
		return schema, fmt.Errorf("invalid schema format: %T", v)
	}
	return schema, nil
}

func parseStatus(c jsonmap.JSONMap, contents *CredentialContents) error {
	statusRaw := c["credentialStatus"]
	if statusRaw == nil {
		return nil
	}

	switch status := statusRaw.(type) {
	case map[string]interface{}:
		contents.CredentialStatus = append(contents.CredentialStatus, parseStatusEntry(status))
	case []interface{}:
		for _, raw := range status {
			statusMap, ok := raw.(map[string]interface{})
			if !ok {
				return fmt.Errorf("unsupported status format: %T", raw)
			}
			contents.CredentialStatus = append(contents.CredentialStatus, parseStatusEntry(statusMap))
		}
	default:
		return fmt.Errorf("unsupported status format: %T", status)
	}
	return nil
}

func parseStatusEntry(status map[string]interface{}) Status {
	s := Status{}
	if id, ok := status["id"].(string); ok {
		s.ID = id
	}
	if t, ok := status["type"].(string); ok {
		s.Type = t
	}
	if purpose, ok := status["statusPurpose"].(string); ok {
		s.StatusPurpose = purpose
	}
	if index, ok := status["statusListIndex"].(string); ok {
		s.StatusListIndex = index
	}
	if cred, ok := status["statusListCredential"].(string); ok {
		s.StatusListCredential = cred
	}
	if index, ok := status["revocationBitmapIndex"].(string); ok {
		s.RevocationBitmapIndex = index
	}
	return s
}

func parseNonTransferable(c jsonmap.JSONMap, contents *CredentialContents) error {
	if nt, ok := c["nonTransferable"].(bool); ok {
		contents.NonTransferable = nt
	}
	return nil
}

// ValidateSchema validates the credential JSON against every schema listed in
// its credentialSchema field. Schemas are fetched by reference.
func ValidateSchema(m jsonmap.JSONMap) error {
	schemas := convertToArray(m["credentialSchema"])
	if len(schemas) == 0 {
		return fmt.Errorf("credentialSchema is required")
	}

	for _, schema := range schemas {
		schemaMap, ok := schema.(map[string]interface{})
		if !ok || schemaMap["id"] == nil {
			return fmt.Errorf("credentialSchema.id is required")
		}

		schemaID, ok := schemaMap["id"].(string)
		if !ok || schemaID == "" {
			return fmt.Errorf("credentialSchema.id must be a non-empty string")
		}

		schemaLoader := gojsonschema.NewReferenceLoader(schemaID)
		credentialLoader := gojsonschema.NewGoLoader(m)

		result, err := gojsonschema.Validate(schemaLoader, credentialLoader)
		if err != nil {
			return fmt.Errorf("failed to validate schema: %w", err)
		}
		if !result.Valid() {
			return fmt.Errorf("credential validation failed: %v", result.Errors())
		}
	}
	return nil
}

// convertToArray ensures a value is represented as an array.
func convertToArray(value interface{}) []interface{} {
	if value == nil {
		return nil
	}
	if arr, ok := value.([]interface{}); ok {
		return arr
	}
	return []interface{}{value}
}
