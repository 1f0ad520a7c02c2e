package response

import (
	"encoding/json"
	"fmt"
)

// ApplySparseFieldsets trims the resource objects of a JSON:API document to
// the requested fields. A fieldset names attributes and relationships alike,
// since both share one namespace per resource type. The id and type members
// are always kept. Types without a fieldset are left untouched.
func ApplySparseFieldsets(jsonData []byte, fieldsets map[string][]string) ([]byte, error) {
	if len(fieldsets) == 0 {
		return jsonData, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON:API document: %w", err)
	}

	switch v := doc["data"].(type) {
	case map[string]any:
		filterResource(v, fieldsets)
	case []any:
		filterResources(v, fieldsets)
	}
	if included, ok := doc["included"].([]any); ok {
		filterResources(included, fieldsets)
	}

	filtered, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filtered document: %w", err)
	}
	return filtered, nil
}

func filterResources(resources []any, fieldsets map[string][]string) {
	for _, resource := range resources {
		if res, ok := resource.(map[string]any); ok {
			filterResource(res, fieldsets)
		}
	}
}

func filterResource(resource map[string]any, fieldsets map[string][]string) {
	resourceType, ok := resource["type"].(string)
	if !ok {
		return
	}
	fields, ok := fieldsets[resourceType]
	if !ok {
		return
	}

	allowed := make(map[string]bool, len(fields))
	for _, field := range fields {
		allowed[field] = true
	}

	for _, member := range []string{"attributes", "relationships"} {
		values, ok := resource[member].(map[string]any)
		if !ok {
			continue
		}
		for key := range values {
			if !allowed[key] {
				delete(values, key)
			}
		}
		if len(values) == 0 {
			delete(resource, member)
		}
	}
}
