package sanitize

import (
	"strings"
	"testing"
)

func TestClean_stripsMarkup(t *testing.T) {
	t.Parallel()

	got := Clean(`<script>alert(1)</script>renegade <b>raider</b>`)
	if strings.ContainsAny(got, "<>()") {
		t.Fatalf("markup survived sanitization: %q", got)
	}
	if !strings.Contains(got, "renegade") || !strings.Contains(got, "raider") {
		t.Fatalf("visible text was lost: %q", got)
	}
}

func TestClean_dropsUnsafeCharacters(t *testing.T) {
	t.Parallel()

	if got := Clean(`ren"; DROP TABLE items; --`); strings.ContainsAny(got, `";`) {
		t.Fatalf("unsafe characters survived: %q", got)
	}
}

func TestClean_keepsBasicPunctuation(t *testing.T) {
	t.Parallel()

	if got := Clean("what's up, doc?!"); got != "whats up, doc?!" {
		t.Fatalf("got %q", got)
	}
}

func TestClean_trimsAndCapsLength(t *testing.T) {
	t.Parallel()

	if got := Clean("  raider  "); got != "raider" {
		t.Fatalf("got %q, want trimmed input", got)
	}

	long := strings.Repeat("a", 300)
	if got := Clean(long); len([]rune(got)) != 100 {
		t.Fatalf("got %d runes, want 100", len([]rune(got)))
	}
}
