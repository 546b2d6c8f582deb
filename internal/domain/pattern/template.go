package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

var reVariable = regexp.MustCompile(`\{\{\s*([a-zA-Z][a-zA-Z0-9_]*)\s*\}\}`)

// ResponseTemplate is a response body with {{variable}} placeholders
type ResponseTemplate struct {
	body string
}

// NewResponseTemplate validates and creates a response template
func NewResponseTemplate(body string) (ResponseTemplate, *shared.DomainError) {
	if strings.TrimSpace(body) == "" {
		return ResponseTemplate{}, shared.NewDomainError("INVALID_TEMPLATE", "response template cannot be empty")
	}
	if strings.Count(body, "{{") != strings.Count(body, "}}") {
		return ResponseTemplate{}, shared.NewDomainError("INVALID_TEMPLATE", "unbalanced placeholder braces in response template")
	}
	return ResponseTemplate{body: body}, nil
}

// Body returns the raw template body
func (t ResponseTemplate) Body() string {
	return t.body
}

// Variables returns the sorted set of placeholder names in the template
func (t ResponseTemplate) Variables() []string {
	matches := reVariable.FindAllStringSubmatch(t.body, -1)
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		seen[m[1]] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render substitutes placeholders with the given values. Every placeholder
// must be bound; a missing value fails the render rather than leaking
// literal braces to a customer.
func (t ResponseTemplate) Render(values map[string]string) (string, *shared.DomainError) {
	var missing []string
	rendered := reVariable.ReplaceAllStringFunc(t.body, func(match string) string {
		name := reVariable.FindStringSubmatch(match)[1]
		value, ok := values[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", shared.NewDomainError("UNBOUND_VARIABLE",
			fmt.Sprintf("template variables not bound: %s", strings.Join(missing, ", ")))
	}
	return rendered, nil
}

// IsStatic returns true when the template has no placeholders and can be
// sent without variable resolution
func (t ResponseTemplate) IsStatic() bool {
	return !reVariable.MatchString(t.body)
}
