package catalog_test

import (
	"testing"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/models"
)

func buildSeed(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.BuildSnapshot(store.SeedCatalog())
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	return snap
}

func TestBuildSnapshot_IndexesSeed(t *testing.T) {
	snap := buildSeed(t)

	if snap.ItemType("bagel") == nil {
		t.Error("ItemType(bagel) = nil")
	}
	if snap.MenuItem("mi-bec") == nil {
		t.Error("MenuItem(mi-bec) = nil")
	}
	if got := len(snap.MenuItemsOf("juice")); got != 2 {
		t.Errorf("MenuItemsOf(juice) = %d items, want 2", got)
	}
}

func TestBuildSnapshot_DropsUnknownReferences(t *testing.T) {
	c := store.SeedCatalog()
	c.MenuItems = append(c.MenuItems, models.MenuItem{
		ID: "mi-bad", Name: "Mystery Plate", ItemType: "no-such-type", Available: true,
		Aliases: []string{"mystery plate"},
	})
	c.IngredientLinks = append(c.IngredientLinks, models.ItemTypeIngredient{
		ItemType: "bagel", IngredientID: "ing-no-such", Group: "spread", Available: true,
	})

	// Bad rows degrade the menu, they never fail the build.
	snap, err := catalog.BuildSnapshot(c)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if snap.MenuItem("mi-bad") != nil {
		t.Error("MenuItem(mi-bad) indexed despite unknown item type")
	}
	if _, ok := snap.ResolveAlias("mystery plate"); ok {
		t.Error("ResolveAlias(mystery plate) bound despite dropped menu item")
	}
	spread := snap.Attribute("bagel", "spread")
	if spread == nil {
		t.Fatal("Attribute(bagel, spread) = nil")
	}
	for _, opt := range spread.ResolvedOptions {
		if opt.Slug == "ing-no-such" {
			t.Error("dangling ingredient link materialized as an option")
		}
	}
}

func TestAliasUniqueness_FirstWins(t *testing.T) {
	c := store.SeedCatalog()
	// Two explicit bindings for the same phrase: the first must win and
	// the second must be dropped, never silently rebound.
	c.Aliases = append(c.Aliases,
		models.Alias{Phrase: "house special", Kind: models.EntityMenuItem, Target: "mi-bec"},
		models.Alias{Phrase: "house special", Kind: models.EntityMenuItem, Target: "mi-lox"},
	)
	snap, err := catalog.BuildSnapshot(c)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	ref, ok := snap.ResolveAlias("house special")
	if !ok {
		t.Fatal("ResolveAlias(house special) not found")
	}
	if ref.Target != "mi-bec" {
		t.Errorf("ResolveAlias(house special).Target = %q, want mi-bec (first wins)", ref.Target)
	}
}

func TestResolveAlias_NormalizesPhrase(t *testing.T) {
	snap := buildSeed(t)

	ref, ok := snap.ResolveAlias("  Orange   Juice! ")
	if !ok {
		t.Fatal("ResolveAlias(Orange Juice) not found")
	}
	if ref.Kind != models.EntityMenuItem || ref.Target != "mi-oj" {
		t.Errorf("ResolveAlias(orange juice) = %+v, want menu_item/mi-oj", ref)
	}
}

func TestExpandType_VirtualCategory(t *testing.T) {
	snap := buildSeed(t)

	got := snap.ExpandType("drinks")
	want := map[string]bool{"latte": true, "coffee": true, "juice": true}
	if len(got) != len(want) {
		t.Fatalf("ExpandType(drinks) = %v, want 3 concrete types", got)
	}
	for _, slug := range got {
		if !want[slug] {
			t.Errorf("ExpandType(drinks) contains unexpected %q", slug)
		}
	}

	if got := snap.ExpandType("bagel"); len(got) != 1 || got[0] != "bagel" {
		t.Errorf("ExpandType(bagel) = %v, want [bagel]", got)
	}
}

func TestAttributes_IngredientLoadedOptions(t *testing.T) {
	snap := buildSeed(t)

	attr := snap.Attribute("bagel", "spread")
	if attr == nil {
		t.Fatal("Attribute(bagel, spread) = nil")
	}
	if !attr.LoadsFromIngredients {
		t.Error("spread attribute should load from ingredients")
	}
	if len(attr.ResolvedOptions) != 3 {
		t.Fatalf("spread options = %d, want 3", len(attr.ResolvedOptions))
	}
	// Ingredient-sourced options carry the link's price modifier.
	var cc *catalog.Option
	for i := range attr.ResolvedOptions {
		if attr.ResolvedOptions[i].Slug == "ing-plain-cc" {
			cc = &attr.ResolvedOptions[i]
		}
	}
	if cc == nil {
		t.Fatal("spread options missing ing-plain-cc")
	}
	if cc.PriceModifier != 1.50 {
		t.Errorf("cream cheese price modifier = %v, want 1.50", cc.PriceModifier)
	}
}

func TestAttributes_SortedByDisplayOrder(t *testing.T) {
	snap := buildSeed(t)

	attrs := snap.Attributes("latte")
	if len(attrs) == 0 {
		t.Fatal("Attributes(latte) empty")
	}
	for i := 1; i < len(attrs); i++ {
		if attrs[i-1].DisplayOrder > attrs[i].DisplayOrder {
			t.Errorf("attributes out of order: %q (%d) before %q (%d)",
				attrs[i-1].Slug, attrs[i-1].DisplayOrder, attrs[i].Slug, attrs[i].DisplayOrder)
		}
	}
}

func TestAliasRefs_LongestFirst(t *testing.T) {
	snap := buildSeed(t)

	refs := snap.AliasRefs()
	for i := 1; i < len(refs); i++ {
		if len(refs[i-1].Phrase) < len(refs[i].Phrase) {
			t.Fatalf("alias refs not longest-first at %d: %q then %q", i, refs[i-1].Phrase, refs[i].Phrase)
		}
	}
}
