package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/sudhub/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		mustHave  string
		mustntSee string
	}{
		{"empty", "", "", ""},
		{"plain text", "Hello, World!", "Hello, World!", ""},
		{"script removed", "<p>Hi</p><script>alert('x')</script>", "<p>Hi</p>", "script"},
		{"onclick removed", `<p onclick="steal()">Hi</p>`, "Hi", "onclick"},
		{"javascript href removed", `<a href="javascript:alert(1)">x</a>`, "x", "javascript:"},
		{"safe link kept", `<a href="https://example.com">x</a>`, `href="https://example.com"`, ""},
		{"lists kept", "<ul><li>One</li><li>Two</li></ul>", "<ul><li>One</li><li>Two</li></ul>", ""},
		{"iframe removed", `<p>Body</p><iframe src="https://evil.example"></iframe>`, "Body", "iframe"},
		{"table class kept", `<table class="grid"><tr><td>c</td></tr></table>`, `class="grid"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.Sanitize(tt.input)
			if tt.mustHave != "" && !strings.Contains(got, tt.mustHave) {
				t.Errorf("Sanitize(%q) = %q, missing %q", tt.input, got, tt.mustHave)
			}
			if tt.mustntSee != "" && strings.Contains(got, tt.mustntSee) {
				t.Errorf("Sanitize(%q) = %q, still contains %q", tt.input, got, tt.mustntSee)
			}
		})
	}
}

func TestSanitizeToHTML(t *testing.T) {
	got := htmlsanitize.SanitizeToHTML("<p>Hello</p><script>x()</script>")
	if string(got) != "<p>Hello</p>" {
		t.Errorf("got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") || !htmlsanitize.IsPlainText("a & b") {
		t.Error("expected plain text")
	}
	if htmlsanitize.IsPlainText("<b>x</b>") {
		t.Error("expected markup")
	}
}

func TestDescription(t *testing.T) {
	if got := htmlsanitize.Description("line one\nline & two"); string(got) != "line one<br>line &amp; two" {
		t.Errorf("plain description = %q", got)
	}
	if got := htmlsanitize.Description("<em>terms</em><script>x()</script>"); string(got) != "<em>terms</em>" {
		t.Errorf("markup description = %q", got)
	}
}
