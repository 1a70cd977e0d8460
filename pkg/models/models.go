// Package models defines the shared domain models for the Orderline
// conversational ordering engine: the data-driven menu catalog (item types,
// attributes, options, ingredients, aliases, qualifiers) and the per-session
// order state built up turn by turn.
package models

import (
	"time"
)

// ── Catalog entities ─────────────────────────────────────────

// InputKind determines how an attribute collects its value.
type InputKind string

const (
	InputSingleSelect InputKind = "single_select"
	InputMultiSelect  InputKind = "multi_select"
	InputBoolean      InputKind = "boolean"
	InputFreeText     InputKind = "free_text"
)

// EntityKind identifies what an alias phrase resolves to.
type EntityKind string

const (
	EntityIngredient       EntityKind = "ingredient"
	EntityMenuItem         EntityKind = "menu_item"
	EntityItemType         EntityKind = "item_type"
	EntityModifierCategory EntityKind = "modifier_category"
)

// QualifierCategory groups modifier qualifiers. At most one qualifier per
// category may bind to a single mention.
type QualifierCategory string

const (
	QualifierAmount      QualifierCategory = "amount"
	QualifierPosition    QualifierCategory = "position"
	QualifierPreparation QualifierCategory = "preparation"
)

// ResponseIntent classifies menu-independent replies (yes/no/cancel/done).
type ResponseIntent string

const (
	IntentAffirmative ResponseIntent = "affirmative"
	IntentNegative    ResponseIntent = "negative"
	IntentCancel      ResponseIntent = "cancel"
	IntentDone        ResponseIntent = "done"
)

// ItemType is a category of orderable item (e.g. "bagel", "sized_beverage").
// A type with ExpandsTo set is a virtual category aggregating other types;
// it never appears on an order item directly.
type ItemType struct {
	Slug        string   `json:"slug"`
	DisplayName string   `json:"display_name"`
	Kind        ItemKind `json:"kind,omitempty"`

	// BasePrice makes a configurable type directly orderable ("a bagel")
	// without going through a named menu item.
	BasePrice float64 `json:"base_price,omitempty"`

	ExpandsTo  []string `json:"expands_to,omitempty"`
	NameFilter string   `json:"name_filter,omitempty"`
}

// Attribute is a configurable question/slot belonging to one item type.
type Attribute struct {
	Slug         string    `json:"slug"`
	ItemType     string    `json:"item_type"`
	DisplayName  string    `json:"display_name"`
	InputKind    InputKind `json:"input_kind"`
	Required     bool      `json:"required"`
	AllowNone    bool      `json:"allow_none"`
	MinSelect    int       `json:"min_select,omitempty"`
	MaxSelect    int       `json:"max_select,omitempty"`
	DisplayOrder int       `json:"display_order"`

	// AskInConversation=false attributes are never prompted for; they only
	// take values the customer volunteers (or catalog defaults).
	AskInConversation bool   `json:"ask_in_conversation"`
	QuestionText      string `json:"question_text,omitempty"`

	// LoadsFromIngredients switches the option source from the
	// attribute-local Options to the ingredients linked to the item type
	// under IngredientGroup.
	LoadsFromIngredients bool   `json:"loads_from_ingredients"`
	IngredientGroup      string `json:"ingredient_group,omitempty"`

	Options []AttributeOption `json:"options,omitempty"`
}

// AttributeOption is one selectable value for an attribute.
type AttributeOption struct {
	Slug          string  `json:"slug"`
	DisplayName   string  `json:"display_name"`
	PriceModifier float64 `json:"price_modifier"`

	// IcedPriceModifier is the size-conditional iced upcharge. When the
	// item resolves iced=true, the modifier on the selected size option
	// applies instead of any generic surcharge, never in addition to it.
	IcedPriceModifier float64 `json:"iced_price_modifier,omitempty"`

	IsDefault    bool     `json:"is_default"`
	Available    bool     `json:"available"`
	DisplayOrder int      `json:"display_order"`
	Aliases      []string `json:"aliases,omitempty"`
	MustMatch    []string `json:"must_match,omitempty"`
}

// Ingredient is a shared, reusable entity (protein, spread, milk, syrup,
// bagel flavor, ...) linked to item types through ItemTypeIngredient.
type Ingredient struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Unit      string   `json:"unit,omitempty"`
	BasePrice float64  `json:"base_price"`
	Available bool     `json:"available"`
	Aliases   []string `json:"aliases,omitempty"`

	// MustMatch lists required substrings: an utterance may only bind to
	// this ingredient if it contains one of them as whole words. Keeps
	// "everything bagel" from matching the gluten-free variant.
	MustMatch []string `json:"must_match,omitempty"`

	Vegan      bool `json:"vegan,omitempty"`
	Vegetarian bool `json:"vegetarian,omitempty"`
	GlutenFree bool `json:"gluten_free,omitempty"`
	DairyFree  bool `json:"dairy_free,omitempty"`
	HasNuts    bool `json:"has_nuts,omitempty"`
}

// ItemTypeIngredient links an ingredient to an item type with per-type
// overrides. The same ingredient can carry different prices and groups
// across item types.
type ItemTypeIngredient struct {
	ItemType        string  `json:"item_type"`
	IngredientID    string  `json:"ingredient_id"`
	Group           string  `json:"group"`
	PriceModifier   float64 `json:"price_modifier"`
	IsDefault       bool    `json:"is_default"`
	Available       bool    `json:"available"`
	DisplayOverride string  `json:"display_override,omitempty"`
	DisplayOrder    int     `json:"display_order"`
}

// MenuItem is a named, directly orderable item ("The Classic BEC").
type MenuItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ItemType  string  `json:"item_type"`
	BasePrice float64 `json:"base_price"`
	Available bool    `json:"available"`

	// RequiredMatchPhrases gate matching: if set, the utterance must
	// contain at least one of them for this item to be a candidate.
	RequiredMatchPhrases []string `json:"required_match_phrases,omitempty"`

	Aliases []string `json:"aliases,omitempty"`

	// DefaultConfig pre-fills attribute selections (attribute slug ->
	// option slug).
	DefaultConfig map[string]string `json:"default_config,omitempty"`
}

// Alias maps a normalized phrase to exactly one catalog entity. Phrases are
// globally unique across all alias collections; on conflict the first
// registration wins and later ones are dropped with a warning.
type Alias struct {
	Phrase string     `json:"phrase"`
	Kind   EntityKind `json:"kind"`
	Target string     `json:"target"`
}

// Qualifier maps a phrase to a normalized modifier qualifier.
type Qualifier struct {
	Phrase     string            `json:"phrase"`
	Normalized string            `json:"normalized"`
	Category   QualifierCategory `json:"category"`
}

// ResponsePattern maps a phrase to a conversational intent, independent of
// menu content.
type ResponsePattern struct {
	Phrase string         `json:"phrase"`
	Intent ResponseIntent `json:"intent"`
}

// StoreInfo carries the per-store commercial configuration the pricing and
// checkout paths need.
type StoreInfo struct {
	Name           string   `json:"name"`
	Phone          string   `json:"phone,omitempty"`
	CityTaxRate    float64  `json:"city_tax_rate"`
	StateTaxRate   float64  `json:"state_tax_rate"`
	DeliveryFee    float64  `json:"delivery_fee"`
	DeliveryZips   []string `json:"delivery_zips,omitempty"`
	PaymentLinkURL string   `json:"payment_link_url,omitempty"`
}

// Catalog is the raw, storage-shaped catalog: everything the index builder
// needs to produce a snapshot. The engine never writes it back.
type Catalog struct {
	Version          string               `json:"version"`
	ItemTypes        []ItemType           `json:"item_types"`
	Attributes       []Attribute          `json:"attributes"`
	Ingredients      []Ingredient         `json:"ingredients"`
	IngredientLinks  []ItemTypeIngredient `json:"ingredient_links"`
	MenuItems        []MenuItem           `json:"menu_items"`
	Aliases          []Alias              `json:"aliases"`
	Qualifiers       []Qualifier          `json:"qualifiers"`
	ResponsePatterns []ResponsePattern    `json:"response_patterns"`
	Abbreviations    map[string]string    `json:"abbreviations,omitempty"`
	Store            StoreInfo            `json:"store"`
}

// ── Order state ──────────────────────────────────────────────

// OrderPhase is the coarse conversation phase persisted on the order task.
type OrderPhase string

const (
	PhaseCollecting OrderPhase = "collecting"
	PhaseAsking     OrderPhase = "asking_attribute"
	PhaseConfirming OrderPhase = "confirming"
	PhaseCheckout   OrderPhase = "checkout"
	PhaseDone       OrderPhase = "done"
)

// CheckoutStage sequences the checkout slots.
type CheckoutStage string

const (
	StageOrderType     CheckoutStage = "order_type"
	StageAddress       CheckoutStage = "address"
	StageName          CheckoutStage = "name"
	StagePaymentMethod CheckoutStage = "payment_method"
	StageContact       CheckoutStage = "contact"
	StageComplete      CheckoutStage = "complete"
)

// ItemKind is the closed set of order item shapes.
type ItemKind string

const (
	KindBagel         ItemKind = "bagel"
	KindSizedBeverage ItemKind = "sized_beverage"
	KindStandard      ItemKind = "standard"
)

// SelectedOption is one resolved option on an order item attribute, with its
// price contribution captured at selection time.
type SelectedOption struct {
	Slug          string  `json:"slug"`
	DisplayName   string  `json:"display_name"`
	PriceModifier float64 `json:"price_modifier"`

	// Count > 1 means a quantity-based modifier (3 sugars, 2 extra shots);
	// the price modifier applies per count as a flat addition, exempt from
	// quantity multiplication.
	Count int `json:"count,omitempty"`

	// Qualifiers holds at most one normalized qualifier per category.
	Qualifiers map[QualifierCategory]string `json:"qualifiers,omitempty"`
}

// Selection is the resolved value of one attribute on an order item.
type Selection struct {
	Options  []SelectedOption `json:"options,omitempty"`
	Bool     *bool            `json:"bool,omitempty"`
	Text     string           `json:"text,omitempty"`
	Declined bool             `json:"declined,omitempty"`

	// Explicit marks values the customer stated, as opposed to defaults.
	Explicit bool `json:"explicit,omitempty"`
}

// OrderItem is one line under construction or completed. The Kind tag picks
// the pricing/scheduling shape; all kinds share resolved selections + price.
type OrderItem struct {
	ID          string                `json:"id"`
	Kind        ItemKind              `json:"kind"`
	ItemType    string                `json:"item_type"`
	MenuItemID  string                `json:"menu_item_id,omitempty"`
	DisplayName string                `json:"display_name"`
	BasePrice   float64               `json:"base_price"`
	Quantity    int                   `json:"quantity"`
	UnitPrice   float64               `json:"unit_price"`
	Selections  map[string]*Selection `json:"selections,omitempty"`
	Complete    bool                  `json:"complete"`
	Removed     bool                  `json:"removed,omitempty"`
	Notes       string                `json:"notes,omitempty"`
}

// Active reports whether the item still counts toward the order.
func (it *OrderItem) Active() bool { return !it.Removed }

// Resolved reports whether the named attribute already has a value.
func (it *OrderItem) Resolved(slug string) bool {
	sel, ok := it.Selections[slug]
	if !ok || sel == nil {
		return false
	}
	return len(sel.Options) > 0 || sel.Bool != nil || sel.Text != "" || sel.Declined
}

// Clone returns a deep copy of the item. The caller assigns a fresh ID when
// cloning to add a new line.
func (it *OrderItem) Clone() *OrderItem {
	cp := *it
	cp.Selections = make(map[string]*Selection, len(it.Selections))
	for slug, sel := range it.Selections {
		if sel == nil {
			continue
		}
		sc := *sel
		sc.Options = append([]SelectedOption(nil), sel.Options...)
		for i, opt := range sc.Options {
			if opt.Qualifiers != nil {
				q := make(map[QualifierCategory]string, len(opt.Qualifiers))
				for k, v := range opt.Qualifiers {
					q[k] = v
				}
				sc.Options[i].Qualifiers = q
			}
		}
		if sel.Bool != nil {
			b := *sel.Bool
			sc.Bool = &b
		}
		cp.Selections[slug] = &sc
	}
	return &cp
}

// CustomerInfo is the identity block collected at checkout.
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PayInStore      PaymentMethod = "in_store"
	PayCashDelivery PaymentMethod = "cash_delivery"
	PayCardLink     PaymentMethod = "card_link"
)

// Pending captures in-flight conversational context: the item and attribute
// awaiting an answer, or an unresolved disambiguation.
type Pending struct {
	ItemID    string `json:"item_id,omitempty"`
	Attribute string `json:"attribute,omitempty"`

	// Candidates holds disambiguation choices (option slugs or menu item
	// IDs) when the last turn matched more than one entity.
	Candidates []string `json:"candidates,omitempty"`
}

// OrderTask is the order under construction for one session. It is owned
// exclusively by its session and never shared across sessions.
type OrderTask struct {
	ID              string        `json:"id"`
	Phase           OrderPhase    `json:"phase"`
	Items           []*OrderItem  `json:"items"`
	Pending         Pending       `json:"pending"`
	CheckoutStage   CheckoutStage `json:"checkout_stage,omitempty"`
	OrderType       string        `json:"order_type,omitempty"` // "pickup" or "delivery"
	DeliveryAddress string        `json:"delivery_address,omitempty"`
	Customer        CustomerInfo  `json:"customer"`
	Payment         PaymentMethod `json:"payment,omitempty"`
	Confirmed       bool          `json:"confirmed"`
	Cancelled       bool          `json:"cancelled,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ActiveItems returns the non-removed items in insertion order.
func (o *OrderTask) ActiveItems() []*OrderItem {
	out := make([]*OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Active() {
			out = append(out, it)
		}
	}
	return out
}

// ItemByID returns the item with the given ID, or nil.
func (o *OrderTask) ItemByID(id string) *OrderItem {
	for _, it := range o.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// AllComplete reports whether every active item is fully configured.
func (o *OrderTask) AllComplete() bool {
	for _, it := range o.ActiveItems() {
		if !it.Complete {
			return false
		}
	}
	return true
}

// Clone deep-copies the task so a turn can mutate freely and commit only on
// success.
func (o *OrderTask) Clone() *OrderTask {
	cp := *o
	cp.Items = make([]*OrderItem, len(o.Items))
	for i, it := range o.Items {
		cp.Items[i] = it.Clone()
	}
	cp.Pending.Candidates = append([]string(nil), o.Pending.Candidates...)
	return &cp
}

// ── Session ──────────────────────────────────────────────────

// HistoryEntry is one utterance/reply pair kept with the session.
type HistoryEntry struct {
	Role string    `json:"role"` // "customer" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session binds an order task and conversation history to a session ID. The
// transport layer serializes turns per session; the engine is the single
// writer.
type Session struct {
	ID        string         `json:"id"`
	Order     *OrderTask     `json:"order"`
	History   []HistoryEntry `json:"history"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone deep-copies the session.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Order != nil {
		cp.Order = s.Order.Clone()
	}
	cp.History = append([]HistoryEntry(nil), s.History...)
	return &cp
}

// ── Transport shapes ─────────────────────────────────────────

// OrderLine is one item as exposed across the transport boundary.
type OrderLine struct {
	DisplayName string  `json:"display_name"`
	Summary     string  `json:"summary,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// OrderState is the order snapshot returned with every turn.
type OrderState struct {
	Status      string       `json:"status"`
	OrderType   string       `json:"order_type,omitempty"`
	Items       []OrderLine  `json:"items"`
	Customer    CustomerInfo `json:"customer"`
	Subtotal    float64      `json:"subtotal"`
	CityTax     float64      `json:"city_tax"`
	StateTax    float64      `json:"state_tax"`
	DeliveryFee float64      `json:"delivery_fee"`
	Total       float64      `json:"total"`
}

// TurnResult is the transport-boundary result of processing one utterance.
type TurnResult struct {
	Reply string     `json:"reply"`
	Order OrderState `json:"order"`
}
