// Package pricing composes order item unit prices and order-level totals.
// Every monetary value is rounded to cents at the point of computation so
// floating-point drift never accumulates into totals.
package pricing

import (
	"math"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/pkg/models"
)

// sizeAttr and icedAttr are the attribute slugs carrying size-conditional
// iced pricing.
const (
	sizeAttr = "size"
	icedAttr = "iced"
)

// Round2 rounds to cents.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// UnitPrice computes the price of one unit of the item:
//
//	base + Σ(option modifiers) + Σ(selected ingredient modifiers)
//
// Count-based modifiers (3 sugars, 2 extra shots) contribute modifier×count
// as a flat addition. When the item's iced attribute resolves true and a
// size is selected, the size option's iced-specific modifier is added; a
// generic iced surcharge is never stacked on top of it.
func UnitPrice(snap *catalog.Snapshot, item *models.OrderItem) float64 {
	price := item.BasePrice
	iced := isIced(item)

	for slug, sel := range item.Selections {
		if sel == nil {
			continue
		}
		for _, opt := range sel.Options {
			count := opt.Count
			if count < 1 {
				count = 1
			}
			price += opt.PriceModifier * float64(count)

			if iced && slug == sizeAttr {
				price += icedModifier(snap, item.ItemType, opt.Slug)
			}
		}
	}
	return Round2(price)
}

func isIced(item *models.OrderItem) bool {
	sel, ok := item.Selections[icedAttr]
	return ok && sel != nil && sel.Bool != nil && *sel.Bool
}

// icedModifier looks up the size option's iced price modifier from the
// catalog so catalog edits take effect without re-selecting.
func icedModifier(snap *catalog.Snapshot, itemType, sizeSlug string) float64 {
	attr := snap.Attribute(itemType, sizeAttr)
	if attr == nil {
		return 0
	}
	for _, opt := range attr.ResolvedOptions {
		if opt.Slug == sizeSlug {
			return opt.IcedPriceModifier
		}
	}
	return 0
}

// LineTotal is the item's contribution to the subtotal.
func LineTotal(snap *catalog.Snapshot, item *models.OrderItem) float64 {
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}
	return Round2(UnitPrice(snap, item) * float64(qty))
}

// Totals is the order-level money breakdown.
type Totals struct {
	Subtotal    float64
	CityTax     float64
	StateTax    float64
	DeliveryFee float64
	Total       float64
}

// OrderTotals computes subtotal, independently rounded city and state tax,
// the delivery fee (zero unless the order is a delivery), and the total.
func OrderTotals(snap *catalog.Snapshot, task *models.OrderTask) Totals {
	var subtotal float64
	for _, item := range task.ActiveItems() {
		subtotal += LineTotal(snap, item)
	}
	subtotal = Round2(subtotal)

	t := Totals{
		Subtotal: subtotal,
		CityTax:  Round2(subtotal * snap.Store.CityTaxRate),
		StateTax: Round2(subtotal * snap.Store.StateTaxRate),
	}
	if task.OrderType == "delivery" {
		t.DeliveryFee = Round2(snap.Store.DeliveryFee)
	}
	t.Total = Round2(t.Subtotal + t.CityTax + t.StateTax + t.DeliveryFee)
	return t
}

// Reprice recomputes the item's stored unit price in place. Called after
// every mutation so the order state returned with each turn is current.
func Reprice(snap *catalog.Snapshot, item *models.OrderItem) {
	item.UnitPrice = UnitPrice(snap, item)
}
