package validation

import (
	"fmt"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateAgainstSchema validates data against a JSON schema expressed as a
// plain map. Returns nil when the schema is empty or the data conforms.
func ValidateAgainstSchema(schemaMap, data map[string]interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("data validation failed: %v", errs)
	}

	return nil
}

var (
	toolNamePattern = regexp.MustCompile(`^[a-z]+[A-Z][a-zA-Z]*$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

// ValidateToolNaming validates a tool name follows the camelCase convention
// used across the adapter registry (e.g. resourceLookup).
func ValidateToolNaming(tool string) error {
	if !toolNamePattern.MatchString(tool) {
		return fmt.Errorf("tool name must be camelCase (e.g. resourceLookup)")
	}
	return nil
}

// ValidateEmail reports whether the collected contact detail is an email
// address.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone reports whether the collected contact detail looks like a
// dialable phone number.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
