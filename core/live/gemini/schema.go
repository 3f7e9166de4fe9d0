package gemini

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// convertJSONSchema maps a reflected JSON schema onto the OpenAPI subset the
// Live API accepts. Property order is kept.
func convertJSONSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	converted := &genai.Schema{
		Description: s.Description,
		Title:       s.Title,
		Format:      s.Format,
		Pattern:     s.Pattern,
	}

	switch s.Type {
	case "string":
		converted.Type = genai.TypeString
	case "number":
		converted.Type = genai.TypeNumber
	case "integer":
		converted.Type = genai.TypeInteger
	case "boolean":
		converted.Type = genai.TypeBoolean
	case "array":
		converted.Type = genai.TypeArray
		converted.Items = convertJSONSchema(s.Items)
	default:
		converted.Type = genai.TypeObject
	}

	for _, value := range s.Enum {
		converted.Enum = append(converted.Enum, fmt.Sprint(value))
	}

	if s.Properties != nil && s.Properties.Len() > 0 {
		converted.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			converted.Properties[pair.Key] = convertJSONSchema(pair.Value)
			converted.PropertyOrdering = append(converted.PropertyOrdering, pair.Key)
		}
	}
	if len(s.Required) > 0 {
		converted.Required = append([]string(nil), s.Required...)
	}

	return converted
}
