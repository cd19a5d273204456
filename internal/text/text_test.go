package text

import (
	"strings"
	"testing"
)

func TestSanitizeStripsTags(t *testing.T) {
	in := `<html><body><h1>Sample Article</h1><p>This is a <b>test</b> article.</p></body></html>`
	got := Sanitize(in)

	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Errorf("expected tags to be stripped, got %q", got)
	}
	if !strings.Contains(got, "Sample Article") {
		t.Errorf("expected heading text to survive, got %q", got)
	}
	if !strings.Contains(got, "test") {
		t.Errorf("expected inline text to survive, got %q", got)
	}
}

func TestSanitizeDropsScripts(t *testing.T) {
	got := Sanitize(`<p>keep</p><script>alert("x")</script>`)
	if strings.Contains(got, "alert") {
		t.Errorf("expected script content to be dropped, got %q", got)
	}
	if !strings.Contains(got, "keep") {
		t.Errorf("expected paragraph text, got %q", got)
	}
}

func TestSanitizeUnescapesEntities(t *testing.T) {
	got := Sanitize("Fish &amp; Chips")
	if got != "Fish & Chips" {
		t.Errorf("expected %q, got %q", "Fish & Chips", got)
	}
}

func TestSanitizeCollapsesBlankLines(t *testing.T) {
	got := Sanitize("one\n\n\n   two   words\n")
	if got != "one\ntwo words" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"hello", 1},
		{"hello   world\nagain", 3},
	}
	for _, tt := range tests {
		if got := CountWords(tt.in); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
