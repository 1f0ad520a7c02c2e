package strings

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	return toDelimited(s, '_')
}

// ToKebabCase converts CamelCase or snake_case to kebab-case
// (FirstName -> first-name, owner_id -> owner-id)
func ToKebabCase(s string) string {
	return toDelimited(s, '-')
}

func toDelimited(s string, sep rune) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			// Collapse repeated separators and never lead with one.
			if result.Len() > 0 && i+1 < len(runes) && !isSep(runes[i+1]) {
				result.WriteRune(sep)
			}
		case unicode.IsUpper(r):
			if i > 0 && !isSep(runes[i-1]) {
				prev := runes[i-1]
				// Add a separator before an uppercase letter if:
				// 1. Previous char is lowercase or a digit
				// 2. Next char is lowercase (for acronyms like HTTPRequest -> http_request)
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result.WriteRune(sep)
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					result.WriteRune(sep)
				}
			}
			result.WriteRune(unicode.ToLower(r))
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isSep(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// Pluralize returns the plural form of the last word of a kebab-case or
// snake_case name (todo-item -> todo-items, person -> people).
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	i := strings.LastIndexAny(s, "-_")
	return s[:i+1] + inflect.Pluralize(s[i+1:])
}

// Singularize returns the singular form of the last word of a kebab-case or
// snake_case name (todo_items -> todo_item, people -> person).
func Singularize(s string) string {
	if s == "" {
		return s
	}
	i := strings.LastIndexAny(s, "-_")
	return s[:i+1] + inflect.Singularize(s[i+1:])
}

// ToPascalCase converts snake_case or kebab-case to PascalCase (todo_item -> TodoItem)
func ToPascalCase(s string) string {
	return inflect.Camelize(strings.ReplaceAll(s, "-", "_"))
}
