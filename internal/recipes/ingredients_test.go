package recipes

import (
	"testing"
)

func TestFallbackIngredientsBulletLinesWin(t *testing.T) {
	got := FallbackIngredients("- Flour\n- 2 eggs\nSalt, pepper")
	if len(got) != 2 {
		t.Fatalf("expected only bullet lines, got %v", got)
	}
	if got[0].Name != "Flour" || got[1].Name != "2 eggs" {
		t.Fatalf("unexpected ingredients: %v", got)
	}
}

func TestFallbackIngredientsNumberedLines(t *testing.T) {
	got := FallbackIngredients("2 cups sugar\n100 g butter\nignored line")
	if len(got) != 2 {
		t.Fatalf("expected digit-prefixed lines, got %v", got)
	}
	if got[0].Name != "2 cups sugar" || got[1].Name != "100 g butter" {
		t.Fatalf("unexpected ingredients: %v", got)
	}
}

func TestFallbackIngredientsCommaSplitWhenNoMarkers(t *testing.T) {
	got := FallbackIngredients("salt, pepper; olive oil")
	want := []string{"salt", "pepper", "olive oil"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFallbackIngredientsDedupeCaseInsensitive(t *testing.T) {
	got := FallbackIngredients("- Salt\n- salt\n- SALT\n- Pepper")
	if len(got) != 2 {
		t.Fatalf("expected case-insensitive dedupe, got %v", got)
	}
	if got[0].Name != "Salt" {
		t.Fatalf("first-seen casing must win, got %q", got[0].Name)
	}
}

func TestFallbackIngredientsNormalizesWhitespace(t *testing.T) {
	got := FallbackIngredients("-   extra   virgin\tolive oil  ")
	if len(got) != 1 || got[0].Name != "extra virgin olive oil" {
		t.Fatalf("whitespace not collapsed: %v", got)
	}
}

func TestFallbackIngredientsEmptyInput(t *testing.T) {
	if got := FallbackIngredients("   \n  "); len(got) != 0 {
		t.Fatalf("expected no ingredients, got %v", got)
	}
}

func TestParseMealIngredientsSkipsBlankSlots(t *testing.T) {
	meal := map[string]interface{}{
		"strIngredient1": "Spaghetti",
		"strMeasure1":    "200  g",
		"strIngredient2": "   ",
		"strMeasure2":    "some",
		"strIngredient3": "Guanciale",
		"strMeasure3":    "",
		"strIngredient4": nil,
	}
	got := ParseMealIngredients(meal)
	if len(got) != 2 {
		t.Fatalf("expected 2 ingredients, got %v", got)
	}
	if got[0].Name != "Spaghetti" || got[0].Measure != "200 g" {
		t.Fatalf("unexpected first ingredient: %+v", got[0])
	}
	if got[1].Name != "Guanciale" || got[1].Measure != "" {
		t.Fatalf("unexpected second ingredient: %+v", got[1])
	}
}
