package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/pkg/models"
)

// Option is a materialized selectable value: either an attribute's inline
// option or an ingredient linked through the item type, flattened to one
// shape so the matcher and scheduler never care about the source.
type Option struct {
	Slug              string
	DisplayName       string
	PriceModifier     float64
	IcedPriceModifier float64
	IsDefault         bool
	Available         bool
	DisplayOrder      int
	Aliases           []string
	MustMatch         []string
}

// AttributeView is an attribute with its option source resolved.
type AttributeView struct {
	models.Attribute

	// ResolvedOptions is the materialized option list: ingredient-sourced
	// when LoadsFromIngredients, inline otherwise. Sorted by DisplayOrder.
	ResolvedOptions []Option
}

// AliasRef is one normalized phrase bound to a catalog entity.
type AliasRef struct {
	Phrase string
	Kind   models.EntityKind
	Target string
}

// QualifierRef is one normalized qualifier phrase.
type QualifierRef struct {
	Phrase     string
	Normalized string
	Category   models.QualifierCategory
}

// Snapshot is an immutable, fully indexed view of one catalog version.
// All engine reads go through a snapshot; a refresh builds a new one and
// swaps it in atomically, so an in-flight turn always sees one version.
type Snapshot struct {
	Version string
	Store   models.StoreInfo

	itemTypes   map[string]*models.ItemType
	menuItems   map[string]*models.MenuItem
	menuByType  map[string][]*models.MenuItem
	ingredients map[string]*models.Ingredient
	attributes  map[string][]*AttributeView // key: item type slug

	aliases       map[string]AliasRef // key: normalized phrase (first registration wins)
	aliasOrder    []AliasRef          // longest phrase first, for greedy scanning
	qualifiers    []QualifierRef      // longest phrase first
	responses     []models.ResponsePattern
	abbreviations map[string]string
}

// NormalizePhrase canonicalizes a phrase for index keys: lowercase, strip
// punctuation except apostrophes and slashes, collapse whitespace.
func NormalizePhrase(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '/':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// BuildSnapshot indexes a raw catalog. Alias phrases are globally unique:
// the first registration wins and later conflicting registrations are
// dropped with a warning, never silently rebound. Rows with dangling
// references (menu item to unknown type, link to unknown ingredient) are
// likewise dropped with a warning rather than failing the whole build, so
// one bad row degrades the menu instead of taking the catalog down.
func BuildSnapshot(c *models.Catalog) (*Snapshot, error) {
	if c == nil {
		return nil, fmt.Errorf("nil catalog")
	}

	s := &Snapshot{
		Version:       c.Version,
		Store:         c.Store,
		itemTypes:     make(map[string]*models.ItemType, len(c.ItemTypes)),
		menuItems:     make(map[string]*models.MenuItem, len(c.MenuItems)),
		menuByType:    make(map[string][]*models.MenuItem),
		attributes:    make(map[string][]*AttributeView),
		aliases:       make(map[string]AliasRef),
		abbreviations: make(map[string]string, len(c.Abbreviations)),
	}

	for i := range c.ItemTypes {
		it := &c.ItemTypes[i]
		if _, dup := s.itemTypes[it.Slug]; dup {
			return nil, fmt.Errorf("duplicate item type %q", it.Slug)
		}
		s.itemTypes[it.Slug] = it
	}

	for i := range c.MenuItems {
		mi := &c.MenuItems[i]
		if _, dup := s.menuItems[mi.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item %q", mi.ID)
		}
		if _, ok := s.itemTypes[mi.ItemType]; !ok {
			log.Warn().
				Str("menu_item", mi.ID).
				Str("item_type", mi.ItemType).
				Msg("Menu item references unknown item type, dropping")
			continue
		}
		s.menuItems[mi.ID] = mi
		s.menuByType[mi.ItemType] = append(s.menuByType[mi.ItemType], mi)
	}

	ingredients := make(map[string]*models.Ingredient, len(c.Ingredients))
	for i := range c.Ingredients {
		ing := &c.Ingredients[i]
		ingredients[ing.ID] = ing
	}
	s.ingredients = ingredients

	// Group ingredient links per item type + group for attribute loading.
	links := make(map[string][]models.ItemTypeIngredient)
	for _, l := range c.IngredientLinks {
		if _, ok := ingredients[l.IngredientID]; !ok {
			log.Warn().
				Str("item_type", l.ItemType).
				Str("ingredient", l.IngredientID).
				Msg("Ingredient link references unknown ingredient, dropping")
			continue
		}
		key := l.ItemType + "\x00" + l.Group
		links[key] = append(links[key], l)
	}

	for i := range c.Attributes {
		attr := &c.Attributes[i]
		if _, ok := s.itemTypes[attr.ItemType]; !ok {
			log.Warn().
				Str("attribute", attr.Slug).
				Str("item_type", attr.ItemType).
				Msg("Attribute references unknown item type, dropping")
			continue
		}
		view := &AttributeView{Attribute: *attr}
		if attr.LoadsFromIngredients {
			view.ResolvedOptions = optionsFromLinks(links[attr.ItemType+"\x00"+attr.IngredientGroup], ingredients)
		} else {
			view.ResolvedOptions = optionsFromInline(attr.Options)
		}
		s.attributes[attr.ItemType] = append(s.attributes[attr.ItemType], view)
	}
	for _, views := range s.attributes {
		sort.SliceStable(views, func(a, b int) bool {
			return views[a].DisplayOrder < views[b].DisplayOrder
		})
	}

	// Global alias index. Registration order is deterministic: explicit
	// aliases, then item types, then menu items, then ingredients.
	for _, a := range c.Aliases {
		s.registerAlias(a.Phrase, a.Kind, a.Target)
	}
	for i := range c.ItemTypes {
		it := &c.ItemTypes[i]
		s.registerAlias(it.DisplayName, models.EntityItemType, it.Slug)
		s.registerAlias(it.Slug, models.EntityItemType, it.Slug)
	}
	for i := range c.MenuItems {
		mi := &c.MenuItems[i]
		if _, ok := s.menuItems[mi.ID]; !ok {
			continue // dropped above
		}
		s.registerAlias(mi.Name, models.EntityMenuItem, mi.ID)
		for _, alias := range mi.Aliases {
			s.registerAlias(alias, models.EntityMenuItem, mi.ID)
		}
	}
	for i := range c.Ingredients {
		ing := &c.Ingredients[i]
		s.registerAlias(ing.Name, models.EntityIngredient, ing.ID)
		for _, alias := range ing.Aliases {
			s.registerAlias(alias, models.EntityIngredient, ing.ID)
		}
	}

	s.aliasOrder = make([]AliasRef, 0, len(s.aliases))
	for _, ref := range s.aliases {
		s.aliasOrder = append(s.aliasOrder, ref)
	}
	sort.SliceStable(s.aliasOrder, func(a, b int) bool {
		if len(s.aliasOrder[a].Phrase) != len(s.aliasOrder[b].Phrase) {
			return len(s.aliasOrder[a].Phrase) > len(s.aliasOrder[b].Phrase)
		}
		return s.aliasOrder[a].Phrase < s.aliasOrder[b].Phrase
	})

	for _, q := range c.Qualifiers {
		s.qualifiers = append(s.qualifiers, QualifierRef{
			Phrase:     NormalizePhrase(q.Phrase),
			Normalized: q.Normalized,
			Category:   q.Category,
		})
	}
	sort.SliceStable(s.qualifiers, func(a, b int) bool {
		return len(s.qualifiers[a].Phrase) > len(s.qualifiers[b].Phrase)
	})

	s.responses = append(s.responses, c.ResponsePatterns...)
	sort.SliceStable(s.responses, func(a, b int) bool {
		return len(s.responses[a].Phrase) > len(s.responses[b].Phrase)
	})

	for k, v := range c.Abbreviations {
		s.abbreviations[NormalizePhrase(k)] = v
	}

	return s, nil
}

func (s *Snapshot) registerAlias(phrase string, kind models.EntityKind, target string) {
	key := NormalizePhrase(phrase)
	if key == "" {
		return
	}
	if existing, dup := s.aliases[key]; dup {
		if existing.Kind != kind || existing.Target != target {
			log.Warn().
				Str("phrase", key).
				Str("kept", string(existing.Kind)+":"+existing.Target).
				Str("dropped", string(kind)+":"+target).
				Msg("Alias conflict, first registration wins")
		}
		return
	}
	s.aliases[key] = AliasRef{Phrase: key, Kind: kind, Target: target}
}

func optionsFromInline(opts []models.AttributeOption) []Option {
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, Option{
			Slug:              o.Slug,
			DisplayName:       o.DisplayName,
			PriceModifier:     o.PriceModifier,
			IcedPriceModifier: o.IcedPriceModifier,
			IsDefault:         o.IsDefault,
			Available:         o.Available,
			DisplayOrder:      o.DisplayOrder,
			Aliases:           o.Aliases,
			MustMatch:         o.MustMatch,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DisplayOrder < out[b].DisplayOrder })
	return out
}

func optionsFromLinks(ls []models.ItemTypeIngredient, ingredients map[string]*models.Ingredient) []Option {
	out := make([]Option, 0, len(ls))
	for _, l := range ls {
		ing := ingredients[l.IngredientID]
		name := ing.Name
		if l.DisplayOverride != "" {
			name = l.DisplayOverride
		}
		out = append(out, Option{
			Slug:          ing.ID,
			DisplayName:   name,
			PriceModifier: l.PriceModifier,
			IsDefault:     l.IsDefault,
			Available:     l.Available && ing.Available,
			DisplayOrder:  l.DisplayOrder,
			Aliases:       ing.Aliases,
			MustMatch:     ing.MustMatch,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DisplayOrder < out[b].DisplayOrder })
	return out
}

// ── Lookups ─────────────────────────────────────────────────

// ItemType returns the item type by slug, or nil.
func (s *Snapshot) ItemType(slug string) *models.ItemType { return s.itemTypes[slug] }

// MenuItem returns the menu item by ID, or nil.
func (s *Snapshot) MenuItem(id string) *models.MenuItem { return s.menuItems[id] }

// Ingredient returns the ingredient by ID, or nil.
func (s *Snapshot) Ingredient(id string) *models.Ingredient { return s.ingredients[id] }

// ItemTypeCount reports how many item types the snapshot indexes.
func (s *Snapshot) ItemTypeCount() int { return len(s.itemTypes) }

// MenuItemCount reports how many menu items the snapshot indexes.
func (s *Snapshot) MenuItemCount() int { return len(s.menuItems) }

// MenuItemsOf returns the menu items of one concrete item type.
func (s *Snapshot) MenuItemsOf(typeSlug string) []*models.MenuItem {
	return s.menuByType[typeSlug]
}

// ExpandType resolves a virtual category to its concrete type slugs. A
// concrete type expands to itself.
func (s *Snapshot) ExpandType(slug string) []string {
	it := s.itemTypes[slug]
	if it == nil {
		return nil
	}
	if len(it.ExpandsTo) == 0 {
		return []string{it.Slug}
	}
	var out []string
	for _, child := range it.ExpandsTo {
		out = append(out, s.ExpandType(child)...)
	}
	return out
}

// Attributes returns the attribute views of an item type, sorted by
// display order.
func (s *Snapshot) Attributes(typeSlug string) []*AttributeView {
	return s.attributes[typeSlug]
}

// Attribute returns one attribute view by item type and slug, or nil.
func (s *Snapshot) Attribute(typeSlug, attrSlug string) *AttributeView {
	for _, v := range s.attributes[typeSlug] {
		if v.Slug == attrSlug {
			return v
		}
	}
	return nil
}

// ResolveAlias looks up an exact normalized phrase.
func (s *Snapshot) ResolveAlias(phrase string) (AliasRef, bool) {
	ref, ok := s.aliases[NormalizePhrase(phrase)]
	return ref, ok
}

// AliasRefs returns all alias bindings, longest phrase first.
func (s *Snapshot) AliasRefs() []AliasRef { return s.aliasOrder }

// Qualifiers returns qualifier bindings, longest phrase first.
func (s *Snapshot) Qualifiers() []QualifierRef { return s.qualifiers }

// ResponsePatterns returns intent phrases, longest first.
func (s *Snapshot) ResponsePatterns() []models.ResponsePattern { return s.responses }

// Abbreviations returns the normalized abbreviation expansion table.
func (s *Snapshot) Abbreviations() map[string]string { return s.abbreviations }
