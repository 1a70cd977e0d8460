package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/pricing"
	"github.com/orderline/orderline/pkg/models"
)

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

// itemLabel renders a human-readable one-line description of an item:
// "Large Iced Latte with Oat milk, Vanilla syrup" or
// "Everything Bagel, toasted, with Scallion Cream Cheese, extra Bacon".
func itemLabel(snap *catalog.Snapshot, item *models.OrderItem) string {
	var prefix []string
	var with []string
	var flags []string

	for _, attr := range snap.Attributes(item.ItemType) {
		sel, ok := item.Selections[attr.Slug]
		if !ok || sel == nil || sel.Declined {
			continue
		}

		switch attr.InputKind {
		case models.InputBoolean:
			if sel.Bool != nil && *sel.Bool {
				flags = append(flags, strings.ToLower(attr.DisplayName))
			}
		case models.InputFreeText:
			if sel.Text != "" {
				with = append(with, sel.Text)
			}
		default:
			for _, opt := range sel.Options {
				name := opt.DisplayName
				if q, ok := opt.Qualifiers[models.QualifierAmount]; ok {
					name = q + " " + name
				}
				if opt.Count > 1 {
					name = fmt.Sprintf("%d %s", opt.Count, name)
				}
				// The size slot reads better as a prefix than a with-clause.
				if attr.Slug == "size" {
					prefix = append(prefix, opt.DisplayName)
				} else {
					with = append(with, name)
				}
			}
		}
	}

	// "iced" reads as part of the name.
	name := item.DisplayName
	for i, f := range flags {
		if f == "iced" {
			name = "Iced " + name
			flags = append(flags[:i], flags[i+1:]...)
			break
		}
	}

	label := strings.Join(append(prefix, name), " ")
	if len(flags) > 0 {
		label += ", " + strings.Join(flags, ", ")
	}
	if len(with) > 0 {
		label += " with " + strings.Join(with, ", ")
	}
	return label
}

// orderSummary renders the numbered order recap used in confirmation and
// status replies.
func orderSummary(snap *catalog.Snapshot, ord *models.OrderTask) string {
	items := ord.ActiveItems()
	if len(items) == 0 {
		return "Your order is empty."
	}

	var b strings.Builder
	for i, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		fmt.Fprintf(&b, "%d. %dx %s — $%.2f\n", i+1, qty, itemLabel(snap, item), pricing.LineTotal(snap, item))
	}

	t := pricing.OrderTotals(snap, ord)
	fmt.Fprintf(&b, "Subtotal: $%.2f, tax: $%.2f", t.Subtotal, pricing.Round2(t.CityTax+t.StateTax))
	if t.DeliveryFee > 0 {
		fmt.Fprintf(&b, ", delivery: $%.2f", t.DeliveryFee)
	}
	fmt.Fprintf(&b, ", total: $%.2f", t.Total)
	return b.String()
}

// buildState assembles the order snapshot returned with every turn.
func buildState(snap *catalog.Snapshot, ord *models.OrderTask) models.OrderState {
	state := models.OrderState{
		Status:    statusOf(ord),
		OrderType: ord.OrderType,
		Customer:  ord.Customer,
		Items:     []models.OrderLine{},
	}

	for _, item := range ord.ActiveItems() {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		state.Items = append(state.Items, models.OrderLine{
			DisplayName: item.DisplayName,
			Summary:     itemLabel(snap, item),
			Quantity:    qty,
			UnitPrice:   pricing.UnitPrice(snap, item),
			LineTotal:   pricing.LineTotal(snap, item),
		})
	}

	t := pricing.OrderTotals(snap, ord)
	state.Subtotal = t.Subtotal
	state.CityTax = t.CityTax
	state.StateTax = t.StateTax
	state.DeliveryFee = t.DeliveryFee
	state.Total = t.Total
	return state
}

func statusOf(ord *models.OrderTask) string {
	switch {
	case ord.Cancelled:
		return "cancelled"
	case ord.Phase == models.PhaseDone:
		return "completed"
	default:
		return string(ord.Phase)
	}
}

// listNames joins display names for disambiguation prompts:
// "the Everything, the Plain, or the Sesame".
func listNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	}
}

// optionNames returns display names of available options in display order.
func optionNames(opts []catalog.Option) []string {
	sorted := append([]catalog.Option(nil), opts...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].DisplayOrder < sorted[b].DisplayOrder })
	names := make([]string, 0, len(sorted))
	for _, o := range sorted {
		if o.Available {
			names = append(names, o.DisplayName)
		}
	}
	return names
}
