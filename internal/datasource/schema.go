package datasource

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const definitions = `{
  "nullableNumber": {"type": ["number", "null"]},
  "nullableString": {"type": ["string", "null"]},
  "borough": {
    "type": "object",
    "required": ["name"],
    "properties": {
      "_id": {"$ref": "#/definitions/nullableString"},
      "id": {"$ref": "#/definitions/nullableString"},
      "name": {"type": "string"},
      "statistics": {
        "type": ["object", "null"],
        "properties": {
          "area_km2": {"$ref": "#/definitions/nullableNumber"},
          "population": {"$ref": "#/definitions/nullableNumber"},
          "density_per_km2": {"$ref": "#/definitions/nullableNumber"},
          "median_property_value": {"$ref": "#/definitions/nullableNumber"},
          "median_household_income": {"$ref": "#/definitions/nullableNumber"}
        }
      },
      "attractions": {
        "type": ["object", "null"],
        "properties": {
          "green_spaces": {"$ref": "#/definitions/nullableNumber"},
          "parks": {"$ref": "#/definitions/nullableNumber"},
          "libraries": {"$ref": "#/definitions/nullableNumber"},
          "pools": {"$ref": "#/definitions/nullableNumber"},
          "metro_stations": {"$ref": "#/definitions/nullableNumber"},
          "sports_complexes": {"$ref": "#/definitions/nullableNumber"}
        }
      },
      "scores": {
        "type": ["object", "null"],
        "properties": {
          "global_score": {"$ref": "#/definitions/nullableNumber"},
          "security": {"$ref": "#/definitions/nullableNumber"},
          "transport": {"$ref": "#/definitions/nullableNumber"},
          "services": {"$ref": "#/definitions/nullableNumber"},
          "budget": {"$ref": "#/definitions/nullableNumber"},
          "leisure": {"$ref": "#/definitions/nullableNumber"}
        }
      },
      "source": {"$ref": "#/definitions/nullableString"},
      "author": {"$ref": "#/definitions/nullableString"},
      "date_consultation": {"$ref": "#/definitions/nullableString"},
      "created_at": {"$ref": "#/definitions/nullableString"},
      "updated_at": {"$ref": "#/definitions/nullableString"}
    }
  }
}`

var (
	boroughListSchema = mustSchema(`{"definitions": ` + definitions + `, "type": "array", "items": {"$ref": "#/definitions/borough"}}`)
	boroughSchema     = mustSchema(`{"definitions": ` + definitions + `, "allOf": [{"$ref": "#/definitions/borough"}]}`)
	createdSchema     = mustSchema(`{"type": "object", "required": ["id"], "properties": {"id": {"type": "string"}, "message": {"type": "string"}}}`)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("datasource: invalid schema: %v", err))
	}
	return schema
}

// validate checks body against schema and returns a description of the
// first few violations, or "" when the body is valid.
func validate(schema *gojsonschema.Schema, body []byte) (string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", err
	}
	if result.Valid() {
		return "", nil
	}

	errs := result.Errors()
	if len(errs) > 3 {
		errs = errs[:3]
	}
	msgs := make([]string, len(errs))
	for i, desc := range errs {
		msgs[i] = desc.String()
	}
	return strings.Join(msgs, "; "), nil
}
