package email

import (
	"strings"
	"testing"

	"github.com/lwatty24/fortniteshop.site/internal/domain/task"
)

func TestRenderItemAlert_listsEveryItem(t *testing.T) {
	t.Parallel()

	body, err := renderItemAlert([]task.AlertItem{
		{Name: "Renegade Raider", Image: "https://img/raider.png", Price: 1200, Type: "Outfit", Rarity: "Rare"},
		{Name: "Raiders Revenge", Image: "https://img/revenge.png", Type: "Harvesting Tool", Rarity: "Epic"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Renegade Raider", "Raiders Revenge", "1200 V-Bucks"} {
		if !strings.Contains(body, want) {
			t.Errorf("alert body missing %q", want)
		}
	}

	// The unpriced item must not render a price line.
	if strings.Count(body, "V-Bucks") != 1 {
		t.Errorf("expected exactly one price line, body:\n%s", body)
	}
}

func TestRenderItemAlert_escapesItemNames(t *testing.T) {
	t.Parallel()

	body, err := renderItemAlert([]task.AlertItem{
		{Name: `<script>alert(1)</script>`, Type: "Outfit", Rarity: "Rare"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("item name was not escaped")
	}
}

func TestRenderWelcome(t *testing.T) {
	t.Parallel()

	body, err := renderWelcome()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "Welcome") {
		t.Fatalf("welcome body missing greeting")
	}
}
