package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/match"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/models"
)

func newMatcher(t *testing.T) (*match.Matcher, *catalog.Snapshot) {
	t.Helper()
	snap, err := catalog.BuildSnapshot(store.SeedCatalog())
	require.NoError(t, err)
	return match.New(snap), snap
}

func TestNormalize(t *testing.T) {
	m, _ := newMatcher(t)

	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "lowercases and strips punctuation", raw: "Large Iced LATTE!!", want: "large iced latte"},
		{name: "folds curly quotes", raw: "that’s it", want: "that's it"},
		{name: "expands abbreviations", raw: "plain bagel with cc", want: "plain bagel with cream cheese"},
		{name: "collapses whitespace", raw: "  two   lattes  ", want: "two lattes"},
		{name: "folds diacritics", raw: "café au lait", want: "cafe au lait"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.Normalize(tc.raw))
		})
	}
}

func TestScanEntities_LongestAliasFirst(t *testing.T) {
	m, _ := newMatcher(t)

	// "orange juice" must bind as one menu item, not as stray fragments.
	got := m.ScanEntities(m.Normalize("an orange juice please"))
	require.Len(t, got, 1)
	assert.Equal(t, models.EntityMenuItem, got[0].Ref.Kind)
	assert.Equal(t, "mi-oj", got[0].Ref.Target)
	assert.Equal(t, 1, got[0].Count)
}

func TestScanEntities_StatedQuantity(t *testing.T) {
	m, _ := newMatcher(t)

	testCases := []struct {
		name string
		text string
		want int
	}{
		{name: "spelled number", text: "two lattes", want: 2},
		{name: "digit", text: "3 croissants", want: 3},
		{name: "article means one", text: "a latte", want: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.ScanEntities(m.Normalize(tc.text))
			require.NotEmpty(t, got)
			assert.Equal(t, tc.want, got[0].Count)
		})
	}
}

func TestScanEntities_MustMatchExclusion(t *testing.T) {
	m, _ := newMatcher(t)

	// "everything bagel" must never bind the gluten-free variant even
	// though "everything" is a substring of its name.
	got := m.ScanEntities(m.Normalize("an everything bagel"))
	for _, em := range got {
		assert.NotEqual(t, "ing-gf-everything", em.Ref.Target,
			"gluten-free variant bound without its must-match phrase")
	}

	got = m.ScanEntities(m.Normalize("a gluten free everything bagel"))
	var bound bool
	for _, em := range got {
		if em.Ref.Target == "ing-gf-everything" {
			bound = true
		}
	}
	assert.True(t, bound, "gluten-free variant should bind when its phrase is present")
}

func TestScanEntities_RequiredMatchPhrases(t *testing.T) {
	m, _ := newMatcher(t)

	// "The Classic BEC" requires one of its gate phrases.
	got := m.ScanEntities(m.Normalize("the classic"))
	for _, em := range got {
		assert.NotEqual(t, "mi-bec", em.Ref.Target)
	}

	got = m.ScanEntities(m.Normalize("a bec on everything"))
	var found bool
	for _, em := range got {
		if em.Ref.Target == "mi-bec" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScanEntities_Qualifiers(t *testing.T) {
	m, _ := newMatcher(t)

	got := m.ScanEntities(m.Normalize("a bec with extra bacon on the side"))
	var bacon *match.EntityMatch
	for i := range got {
		if got[i].Ref.Target == "ing-bacon" {
			bacon = &got[i]
		}
	}
	require.NotNil(t, bacon, "bacon not matched")
	assert.Equal(t, "extra", bacon.Qualifiers[models.QualifierAmount])
	assert.Equal(t, "side", bacon.Qualifiers[models.QualifierPosition])
}

func TestMatchOptions_ExactAndPlural(t *testing.T) {
	m, snap := newMatcher(t)
	size := snap.Attribute("latte", "size")
	require.NotNil(t, size)

	out := m.MatchOptions(size, "large")
	require.Len(t, out.Selected, 1)
	assert.Equal(t, "large", out.Selected[0].Option.Slug)
	assert.Empty(t, out.Candidates)
}

func TestMatchOptions_PartialDisambiguates(t *testing.T) {
	m, snap := newMatcher(t)
	milk := snap.Attribute("latte", "milk")
	require.NotNil(t, milk)

	// "milk" alone is a fragment of every option: never a silent pick.
	out := m.MatchOptions(milk, "milk")
	assert.Empty(t, out.Selected)
	assert.GreaterOrEqual(t, len(out.Candidates), 2)

	// An unambiguous fragment selects.
	out = m.MatchOptions(milk, "oat")
	require.Len(t, out.Selected, 1)
	assert.Equal(t, "oat", out.Selected[0].Option.Slug)
}

func TestMatchOptions_WithinLongerUtterance(t *testing.T) {
	m, snap := newMatcher(t)
	milk := snap.Attribute("latte", "milk")
	require.NotNil(t, milk)

	out := m.MatchOptions(milk, m.Normalize("large iced latte with oat milk"))
	require.Len(t, out.Selected, 1)
	assert.Equal(t, "oat", out.Selected[0].Option.Slug)
}

func TestMatchOptions_QuantityModifier(t *testing.T) {
	m, snap := newMatcher(t)
	sweet := snap.Attribute("latte", "sweetener")
	require.NotNil(t, sweet)

	out := m.MatchOptions(sweet, m.Normalize("3 sugars"))
	require.Len(t, out.Selected, 1)
	assert.Equal(t, "sugar", out.Selected[0].Option.Slug)
	assert.Equal(t, 3, out.Selected[0].Count)
}

func TestMatchBoolean(t *testing.T) {
	m, snap := newMatcher(t)
	toasted := snap.Attribute("bagel", "toasted")
	require.NotNil(t, toasted)

	testCases := []struct {
		name string
		text string
		want *bool
	}{
		{name: "affirmed", text: "toasted with butter", want: boolPtr(true)},
		{name: "negated", text: "not toasted", want: boolPtr(false)},
		{name: "unmentioned", text: "with butter", want: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.MatchBoolean(toasted, m.Normalize(tc.text))
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestIntent(t *testing.T) {
	m, _ := newMatcher(t)

	testCases := []struct {
		name string
		text string
		want models.ResponseIntent
		ok   bool
	}{
		{name: "plain yes", text: "yes", want: models.IntentAffirmative, ok: true},
		{name: "short phrase", text: "yes please", want: models.IntentAffirmative, ok: true},
		{name: "done", text: "that's it", want: models.IntentDone, ok: true},
		{name: "cancel", text: "never mind", want: models.IntentCancel, ok: true},
		{name: "negative", text: "no thanks", want: models.IntentNegative, ok: true},
		{name: "menu content is not an intent", text: "a latte with oat milk", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := m.Intent(m.Normalize(tc.text))
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }
