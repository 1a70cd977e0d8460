package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/pricing"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/models"
)

func seedSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.BuildSnapshot(store.SeedCatalog())
	require.NoError(t, err)
	return snap
}

func latteItem(size string, iced bool, milk string, milkPrice float64) *models.OrderItem {
	sizeMod := 0.0
	if size == "large" {
		sizeMod = 0.90
	}
	item := &models.OrderItem{
		ID:        "it-latte",
		Kind:      models.KindSizedBeverage,
		ItemType:  "latte",
		BasePrice: 3.45,
		Quantity:  1,
		Selections: map[string]*models.Selection{
			"size": {Options: []models.SelectedOption{{Slug: size, PriceModifier: sizeMod, Count: 1}}},
			"milk": {Options: []models.SelectedOption{{Slug: milk, PriceModifier: milkPrice, Count: 1}}},
		},
	}
	if iced {
		v := true
		item.Selections["iced"] = &models.Selection{Bool: &v, Explicit: true}
	}
	return item
}

func TestUnitPrice_LargeIcedOatLatte(t *testing.T) {
	snap := seedSnapshot(t)

	// 3.45 base + 0.90 large + 1.10 large-iced + 0.50 oat = 5.95
	item := latteItem("large", true, "oat", 0.50)
	assert.InDelta(t, 5.95, pricing.UnitPrice(snap, item), 0.0001)
}

func TestUnitPrice_IcedNeverDoubleCharges(t *testing.T) {
	snap := seedSnapshot(t)

	// iced=true must add exactly the size option's iced modifier:
	// base + size + size_iced, never base + size + size_iced + generic.
	hot := latteItem("small", false, "whole", 0)
	iced := latteItem("small", true, "whole", 0)

	assert.InDelta(t, 3.45, pricing.UnitPrice(snap, hot), 0.0001)
	assert.InDelta(t, 3.45+1.65, pricing.UnitPrice(snap, iced), 0.0001)
}

func TestUnitPrice_CountModifiersAreFlatAdditions(t *testing.T) {
	snap := seedSnapshot(t)

	item := latteItem("small", false, "whole", 0)
	item.Selections["syrup"] = &models.Selection{
		Options: []models.SelectedOption{{Slug: "vanilla", PriceModifier: 0.75, Count: 2}},
	}
	// 3.45 + 2×0.75
	assert.InDelta(t, 4.95, pricing.UnitPrice(snap, item), 0.0001)
}

func TestUnitPrice_RoundsAtComputation(t *testing.T) {
	snap := seedSnapshot(t)

	item := &models.OrderItem{
		ItemType:  "latte",
		BasePrice: 3.333333,
		Quantity:  1,
	}
	got := pricing.UnitPrice(snap, item)
	assert.InDelta(t, 3.33, got, 0.0001)
}

func TestOrderTotals(t *testing.T) {
	snap := seedSnapshot(t)

	task := &models.OrderTask{
		Items: []*models.OrderItem{
			{ID: "a", ItemType: "latte", BasePrice: 3.45, Quantity: 2},
			{ID: "b", ItemType: "pastry", BasePrice: 3.75, Quantity: 1},
			{ID: "c", ItemType: "juice", BasePrice: 3.25, Quantity: 1, Removed: true},
		},
	}

	got := pricing.OrderTotals(snap, task)

	// Removed item excluded: 2×3.45 + 3.75 = 10.65.
	assert.InDelta(t, 10.65, got.Subtotal, 0.0001)
	// City and state tax each independently rounded.
	assert.InDelta(t, pricing.Round2(10.65*0.045), got.CityTax, 0.0001)
	assert.InDelta(t, pricing.Round2(10.65*0.04), got.StateTax, 0.0001)
	assert.Zero(t, got.DeliveryFee, "pickup orders carry no delivery fee")
	assert.InDelta(t, got.Subtotal+got.CityTax+got.StateTax, got.Total, 0.0001)
}

func TestOrderTotals_DeliveryFee(t *testing.T) {
	snap := seedSnapshot(t)

	task := &models.OrderTask{
		OrderType: "delivery",
		Items: []*models.OrderItem{
			{ID: "a", ItemType: "pastry", BasePrice: 3.75, Quantity: 1},
		},
	}
	got := pricing.OrderTotals(snap, task)
	assert.InDelta(t, 2.99, got.DeliveryFee, 0.0001)
	assert.InDelta(t, got.Subtotal+got.CityTax+got.StateTax+2.99, got.Total, 0.0001)
}
