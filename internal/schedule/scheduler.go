// Package schedule decides which clarifying question to ask next for an
// order item: attributes are walked in display order, resolved and
// non-conversational slots are skipped, and required slots can never be
// skipped past.
package schedule

import (
	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/pkg/models"
)

// Next returns the next attribute to ask for the item, or nil when nothing
// remains to ask. Skip rules:
//
//   - already resolved (including explicit declines) → skip
//   - ask_in_conversation=false → never asked; such slots only take values
//     the customer volunteers
//   - select attribute with an empty resolved option set → configuration
//     warning, skipped rather than asked with nothing to offer
func Next(snap *catalog.Snapshot, item *models.OrderItem) *catalog.AttributeView {
	for _, attr := range snap.Attributes(item.ItemType) {
		if item.Resolved(attr.Slug) {
			continue
		}
		if !attr.AskInConversation {
			continue
		}
		if needsOptions(attr) && len(attr.ResolvedOptions) == 0 {
			log.Warn().
				Str("item_type", item.ItemType).
				Str("attribute", attr.Slug).
				Msg("Attribute has no options, skipping question")
			continue
		}
		return attr
	}
	return nil
}

// Complete reports whether every required attribute on the item is
// resolved. A required attribute with allow_none=true is satisfied by an
// explicit decline; with allow_none=false it must carry a value.
func Complete(snap *catalog.Snapshot, item *models.OrderItem) bool {
	return Blocking(snap, item) == nil
}

// Blocking returns the first required attribute that keeps the item from
// completing, or nil when nothing blocks it. A non-conversational required
// slot with no default lands here after the normal walk; the caller asks it
// anyway rather than completing the item unconfigured.
func Blocking(snap *catalog.Snapshot, item *models.OrderItem) *catalog.AttributeView {
	for _, attr := range snap.Attributes(item.ItemType) {
		if !attr.Required {
			continue
		}
		sel, ok := item.Selections[attr.Slug]
		if !ok || sel == nil {
			if needsOptions(attr) && len(attr.ResolvedOptions) == 0 {
				// Unconfigured slot can't block the item.
				continue
			}
			return attr
		}
		if sel.Declined && !attr.AllowNone {
			return attr
		}
		if !item.Resolved(attr.Slug) {
			return attr
		}
	}
	return nil
}

// FillDefaults resolves unanswered non-conversational attributes from their
// catalog defaults so they participate in pricing without ever being asked.
// Values set here are not marked explicit; a later customer mention
// overrides them.
func FillDefaults(snap *catalog.Snapshot, item *models.OrderItem) {
	for _, attr := range snap.Attributes(item.ItemType) {
		if item.Resolved(attr.Slug) {
			continue
		}
		def := defaultOption(attr)
		if def == nil {
			continue
		}
		if item.Selections == nil {
			item.Selections = make(map[string]*models.Selection)
		}
		item.Selections[attr.Slug] = &models.Selection{
			Options: []models.SelectedOption{{
				Slug:          def.Slug,
				DisplayName:   def.DisplayName,
				PriceModifier: def.PriceModifier,
				Count:         1,
			}},
		}
	}
}

func defaultOption(attr *catalog.AttributeView) *catalog.Option {
	if attr.InputKind != models.InputSingleSelect {
		return nil
	}
	for i := range attr.ResolvedOptions {
		if attr.ResolvedOptions[i].IsDefault && attr.ResolvedOptions[i].Available {
			return &attr.ResolvedOptions[i]
		}
	}
	return nil
}

func needsOptions(attr *catalog.AttributeView) bool {
	return attr.InputKind == models.InputSingleSelect || attr.InputKind == models.InputMultiSelect
}
