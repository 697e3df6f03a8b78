// Package docrules holds the static document requirements per service
// category. The table is configuration, not code: the workflow engine
// receives it as an injected dependency and never hardcodes category logic.
package docrules

import (
	"encoding/json"
	"fmt"
	"os"

	"provider-onboarding/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Rule describes one proof-of-identity document for a category.
type Rule struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	InputPlaceholder string `json:"inputPlaceholder"`
	Required         bool   `json:"required"`
}

// Table maps a category to its ordered document rules.
type Table map[models.Category][]Rule

// ForCategory returns the ordered rules for a category. Unknown categories
// yield an empty slice.
func (t Table) ForCategory(cat models.Category) []Rule {
	return t[cat]
}

// Default returns the built-in rule table.
func Default() Table {
	aadhaar := Rule{Key: "aadhaar", Label: "Aadhaar Card", InputPlaceholder: "Enter Aadhaar Number", Required: true}
	pan := Rule{Key: "pan", Label: "PAN Card", InputPlaceholder: "Enter PAN Number", Required: true}
	dl := Rule{Key: "dl", Label: "Driving Licence", InputPlaceholder: "Enter Driving Licence Number", Required: true}

	return Table{
		models.CategoryCarwash: {aadhaar, pan},
		models.CategoryPickDrop: {
			aadhaar, pan, dl,
			{Key: "rc", Label: "Vehicle RC Book (Optional)", InputPlaceholder: "Enter Registration Number (Optional)", Required: false},
		},
		models.CategoryDriver: {
			aadhaar, pan, dl,
			{Key: "rc", Label: "RC Book (Optional)", InputPlaceholder: "Enter Registration Number (Optional)", Required: false},
		},
	}
}

// tableSchema validates a rules file before it replaces the built-in table.
const tableSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": "array",
		"minItems": 1,
		"items": {
			"type": "object",
			"properties": {
				"key": {"type": "string", "minLength": 1},
				"label": {"type": "string", "minLength": 1},
				"inputPlaceholder": {"type": "string"},
				"required": {"type": "boolean"}
			},
			"required": ["key", "label", "required"],
			"additionalProperties": false
		}
	}
}`

// Load reads a JSON rules file and validates it against the table schema.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read doc rules file %s: %w", path, err)
	}

	schemaLoader := gojsonschema.NewStringLoader(tableSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("doc rules schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return nil, fmt.Errorf("invalid doc rules file %s: %s", path, errs[0].String())
		}
		return nil, fmt.Errorf("invalid doc rules file %s", path)
	}

	var raw map[string][]Rule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse doc rules file %s: %w", path, err)
	}

	table := make(Table, len(raw))
	for catStr, rules := range raw {
		cat, err := models.ParseCategory(catStr)
		if err != nil {
			return nil, fmt.Errorf("doc rules file %s: %w", path, err)
		}
		table[cat] = rules
	}

	return table, nil
}
