package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@example.co.uk", true},
		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidDocumentName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"v1.txt", true},
		{"Contract A (final).docx", true},
		{"", false},
		{"..", false},
		{"a/b.txt", false},
		{`a\b.txt`, false},
	}
	for _, tt := range tests {
		if got := IsValidDocumentName(tt.name); got != tt.want {
			t.Errorf("IsValidDocumentName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	type input struct {
		Title string `validate:"notblank,max=10" label:"Title" msg:"Enter a title"`
		Name  string `validate:"required,max=5" label:"Branch name"`
		Email string `validate:"omitempty,email" label:"Email"`
	}

	tests := []struct {
		name       string
		in         input
		wantErrors bool
		wantFirst  string
	}{
		{"valid", input{Title: "Contract", Name: "edits"}, false, ""},
		{"blank title uses msg", input{Title: "   ", Name: "edits"}, true, "Enter a title"},
		{"name required", input{Title: "x"}, true, "Branch name is required."},
		{"name too long", input{Title: "x", Name: "toolong"}, true, "Branch name must be at most 5 characters."},
		{"bad email", input{Title: "x", Name: "a", Email: "nope"}, true, "A valid email address is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.in)
			if res.HasErrors() != tt.wantErrors {
				t.Fatalf("HasErrors = %v, want %v (%v)", res.HasErrors(), tt.wantErrors, res.Errors)
			}
			if res.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", res.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_Pointer(t *testing.T) {
	type input struct {
		Doc string `validate:"docname" label:"Document name"`
	}
	res := Validate(&input{Doc: "a/b"})
	if res.First() != "Document name must be a file name without slashes." {
		t.Errorf("First() = %q", res.First())
	}
}

func TestResult_All(t *testing.T) {
	r := &Result{}
	if r.All() != "" || r.First() != "" {
		t.Error("empty result should have no messages")
	}
	r.Errors = []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}
	if r.All() != "Error 1; Error 2" {
		t.Errorf("All() = %q", r.All())
	}
}
