package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/donationhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Winter blankets", "Winter blankets"},
		{"trims", "  Relief  ", "Relief"},
		{"ampersand kept", "Food & water", "Food & water"},
		{"strips tags", "<b>Urgent</b> surgery", "Urgent surgery"},
		{"drops script", "Rent<script>alert('xss')</script>", "Rent"},
		{"drops onclick", `<span onclick="x()">Tuition</span>`, "Tuition"},
		{"drops iframe", `School fees<iframe src="https://evil.example"></iframe>`, "School fees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.PlainText(tt.input)
			if got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") {
		t.Error("expected empty string to be plain text")
	}
	if !htmlsanitize.IsPlainText("Hello, World!") {
		t.Error("expected string without tags to be plain text")
	}
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected string with tags to NOT be plain text")
	}
}
