package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/schedule"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/models"
)

func seedSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.BuildSnapshot(store.SeedCatalog())
	require.NoError(t, err)
	return snap
}

func newBagelItem() *models.OrderItem {
	return &models.OrderItem{
		ID:         "it-1",
		Kind:       models.KindBagel,
		ItemType:   "bagel",
		Quantity:   1,
		Selections: make(map[string]*models.Selection),
	}
}

func selectOption(item *models.OrderItem, attr, slug string) {
	item.Selections[attr] = &models.Selection{
		Options:  []models.SelectedOption{{Slug: slug, Count: 1}},
		Explicit: true,
	}
}

func TestNext_WalksDisplayOrder(t *testing.T) {
	snap := seedSnapshot(t)
	item := newBagelItem()

	next := schedule.Next(snap, item)
	require.NotNil(t, next)
	assert.Equal(t, "bagel_flavor", next.Slug)

	selectOption(item, "bagel_flavor", "ing-plain")
	next = schedule.Next(snap, item)
	require.NotNil(t, next)
	assert.Equal(t, "toasted", next.Slug)
}

func TestNext_SkipsNonConversationalAttributes(t *testing.T) {
	snap := seedSnapshot(t)
	item := newBagelItem()

	// Resolve every conversational slot; protein and sliced have
	// ask_in_conversation=false and must never be offered as questions.
	selectOption(item, "bagel_flavor", "ing-plain")
	item.Selections["toasted"] = &models.Selection{Bool: boolPtr(true), Explicit: true}
	selectOption(item, "spread", "ing-butter")

	assert.Nil(t, schedule.Next(snap, item),
		"scheduler asked a non-conversational attribute")
}

func TestNext_ExplicitMentionShortCircuitsSkip(t *testing.T) {
	snap := seedSnapshot(t)
	item := newBagelItem()

	// A volunteered protein is recorded as resolved; the scheduler still
	// asks the remaining conversational slots and nothing else.
	selectOption(item, "protein", "ing-bacon")

	next := schedule.Next(snap, item)
	require.NotNil(t, next)
	assert.Equal(t, "bagel_flavor", next.Slug)
}

func TestNext_SkipsDeclinedSlot(t *testing.T) {
	snap := seedSnapshot(t)
	item := newBagelItem()

	selectOption(item, "bagel_flavor", "ing-everything")
	item.Selections["toasted"] = &models.Selection{Bool: boolPtr(false), Explicit: true}
	item.Selections["spread"] = &models.Selection{Declined: true, Explicit: true}

	assert.Nil(t, schedule.Next(snap, item))
}

func TestNext_EmptyOptionSetIsWarningNotCrash(t *testing.T) {
	c := store.SeedCatalog()
	// Point the spread attribute at a group with no linked ingredients.
	for i := range c.Attributes {
		if c.Attributes[i].ItemType == "bagel" && c.Attributes[i].Slug == "spread" {
			c.Attributes[i].IngredientGroup = "no-such-group"
		}
	}
	snap, err := catalog.BuildSnapshot(c)
	require.NoError(t, err, "empty option set must build as a warning, not an error")

	item := newBagelItem()
	selectOption(item, "bagel_flavor", "ing-plain")
	item.Selections["toasted"] = &models.Selection{Bool: boolPtr(true), Explicit: true}

	// The crippled spread slot is skipped instead of asked empty.
	assert.Nil(t, schedule.Next(snap, item))
}

func TestComplete(t *testing.T) {
	snap := seedSnapshot(t)

	t.Run("missing required slot", func(t *testing.T) {
		item := newBagelItem()
		selectOption(item, "bagel_flavor", "ing-plain")
		assert.False(t, schedule.Complete(snap, item))
	})

	t.Run("decline satisfies allow_none", func(t *testing.T) {
		item := newBagelItem()
		selectOption(item, "bagel_flavor", "ing-plain")
		item.Selections["toasted"] = &models.Selection{Bool: boolPtr(true), Explicit: true}
		item.Selections["spread"] = &models.Selection{Declined: true, Explicit: true}
		assert.True(t, schedule.Complete(snap, item))
	})

	t.Run("decline cannot satisfy required allow_none=false", func(t *testing.T) {
		item := newBagelItem()
		item.Selections["bagel_flavor"] = &models.Selection{Declined: true, Explicit: true}
		item.Selections["toasted"] = &models.Selection{Bool: boolPtr(true), Explicit: true}
		item.Selections["spread"] = &models.Selection{Declined: true, Explicit: true}
		assert.False(t, schedule.Complete(snap, item))
	})
}

func TestBlocking_NamesTheUnresolvedRequiredSlot(t *testing.T) {
	snap := seedSnapshot(t)

	item := newBagelItem()
	selectOption(item, "bagel_flavor", "ing-plain")

	// A required slot skipped by the normal walk still blocks completion
	// and is reported so the caller can ask it.
	blocking := schedule.Blocking(snap, item)
	require.NotNil(t, blocking)
	assert.Equal(t, "toasted", blocking.Slug)

	item.Selections["toasted"] = &models.Selection{Bool: boolPtr(false), Explicit: true}
	item.Selections["spread"] = &models.Selection{Declined: true, Explicit: true}
	assert.Nil(t, schedule.Blocking(snap, item))
}

func TestFillDefaults(t *testing.T) {
	snap := seedSnapshot(t)

	item := &models.OrderItem{
		ID:         "it-latte",
		Kind:       models.KindSizedBeverage,
		ItemType:   "latte",
		Quantity:   1,
		Selections: make(map[string]*models.Selection),
	}
	selectOption(item, "milk", "oat")

	schedule.FillDefaults(snap, item)

	// Size defaults to small; the explicit milk choice is untouched.
	require.True(t, item.Resolved("size"))
	assert.Equal(t, "small", item.Selections["size"].Options[0].Slug)
	assert.False(t, item.Selections["size"].Explicit)
	assert.Equal(t, "oat", item.Selections["milk"].Options[0].Slug)
}

func boolPtr(b bool) *bool { return &b }
