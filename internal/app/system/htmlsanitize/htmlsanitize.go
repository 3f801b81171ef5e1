// Package htmlsanitize cleans user-supplied HTML (workspace and request
// descriptions) before it is rendered.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "code", "pre")
		p.AllowElements("mark", "u", "s", "sub", "sup")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers and unsafe URLs from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// SanitizeToHTML sanitizes s and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}

// Description renders a description for display. Plain text keeps its line
// breaks; markup is sanitized.
func Description(s string) template.HTML {
	s = strings.TrimSpace(s)
	if IsPlainText(s) {
		escaped := html.EscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	}
	return SanitizeToHTML(s)
}
