package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/match"
	"github.com/orderline/orderline/internal/pricing"
	"github.com/orderline/orderline/pkg/models"
)

// Quantity-change patterns are anchored so slot-filling answers like
// "two sugars" never get hijacked. The count group accepts digits or
// number words; the target group is the trailing product phrase.
var quantityChangeRes = []*regexp.Regexp{
	regexp.MustCompile(`^(?:can (?:i|we) (?:get|have|do) |could (?:i|we) (?:get|have|do) |i(?:'d| would) like )?make (?:it|that|those|them) (\w+)(?: (.+?))?(?: instead)?(?: please)?$`),
	regexp.MustCompile(`^(?:actually |wait )?change (?:it|that|those|them) to (\w+)(?: (.+?))?(?: please)?$`),
	regexp.MustCompile(`^actually (?:i(?:'ll| will) (?:take|have|do) |(?:can|could) (?:i|we) (?:get|have|do) )?(\w+) (.+?)(?: instead)?(?: please)?$`),
	regexp.MustCompile(`^(?:can|could) (?:i|we) (?:get|have|do) (\w+) (.+?) instead(?: please)?$`),
}

// productSynonyms fold colloquial product names onto catalog vocabulary
// before target matching.
var productSynonyms = map[string]string{
	"orange juice": "tropicana",
	"oj":           "tropicana",
}

var (
	taxQuestionRe = regexp.MustCompile(`\b(tax|taxes)\b`)
	statusRes     = []*regexp.Regexp{
		regexp.MustCompile(`^what(?:'s| is) (?:in )?my (?:order|total)\b`),
		regexp.MustCompile(`^what do i have(?: so far)?\??$`),
		regexp.MustCompile(`^(?:my|the) (?:order|total)(?: so far)?(?: please)?\??$`),
		regexp.MustCompile(`^how much (?:is (?:that|it|my order)|do i owe)\b`),
		regexp.MustCompile(`^(?:can (?:i|you) )?(?:read|repeat) (?:that|my order|the order)(?: back)?(?: to me)?(?: please)?\??$`),
	}
)

// utilities handles the out-of-band requests that are valid in any phase:
// quantity changes, tax questions, and order status readbacks. Returns
// handled=false when the utterance is ordinary turn input.
func (e *Engine) utilities(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm string) (string, bool) {
	if reply, ok := e.quantityChange(snap, m, ord, norm); ok {
		return reply, true
	}
	if taxQuestionRe.MatchString(norm) && isQuestionish(norm) {
		return taxBreakdown(snap, ord), true
	}
	for _, re := range statusRes {
		if re.MatchString(norm) {
			if len(ord.ActiveItems()) == 0 {
				return "Your order is empty so far. What can I get you?", true
			}
			return "Here's your order so far:\n" + orderSummary(snap, ord), true
		}
	}
	return "", false
}

// isQuestionish guards the tax intercept: "do you charge tax" is a
// question, "no tax the cut" in the middle of an address is not worth
// special-casing, so we require a short interrogative shape.
func isQuestionish(norm string) bool {
	for _, lead := range []string{"what", "how much", "is there", "do you", "does that", "whats", "how many"} {
		if strings.HasPrefix(norm, lead) {
			return true
		}
	}
	return false
}

func taxBreakdown(snap *catalog.Snapshot, ord *models.OrderTask) string {
	t := pricing.OrderTotals(snap, ord)
	if t.Subtotal == 0 {
		return fmt.Sprintf("Tax here is %.2f%% city plus %.2f%% state. Your order is empty so far.",
			snap.Store.CityTaxRate*100, snap.Store.StateTaxRate*100)
	}
	return fmt.Sprintf("Tax on your order is %s (%s city, %s state), for a total of %s.",
		money(pricing.Round2(t.CityTax+t.StateTax)), money(t.CityTax), money(t.StateTax), money(t.Total))
}

// quantityChange parses "make it three", "change that to 2 bagels",
// "actually two orange juices instead". The stated number is the TARGET
// count, not an increment: matching complete items are counted and only
// the shortfall is cloned. Asking for a count you already have is a no-op.
func (e *Engine) quantityChange(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm string) (string, bool) {
	var target int
	var phrase string
	for _, re := range quantityChangeRes {
		groups := re.FindStringSubmatch(norm)
		if groups == nil {
			continue
		}
		n, ok := match.ParseCount(groups[1])
		if !ok {
			continue
		}
		target = n
		if len(groups) > 2 {
			phrase = strings.TrimSpace(groups[2])
		}
		break
	}
	if target == 0 {
		return "", false
	}

	phrase = canonicalProduct(phrase)

	// No matching item on the order: this is a fresh request, not a
	// quantity change. Let the ordinary collect path handle it.
	matching := matchingItems(snap, m, ord, phrase)
	if len(matching) == 0 {
		return "", false
	}

	have := 0
	for _, it := range matching {
		have += it.Quantity
	}
	label := itemLabel(snap, matching[0])
	if target <= have {
		return fmt.Sprintf("You already have %d %s on the order.", have, plural(label, have)), true
	}

	proto := matching[0]
	for i := 0; i < target-have; i++ {
		cp := proto.Clone()
		cp.ID = uuid.NewString()
		cp.Quantity = 1
		ord.Items = append(ord.Items, cp)
	}
	return fmt.Sprintf("Done — that's %d %s now.", target, plural(label, target)), true
}

// canonicalProduct strips articles and trailing fillers, then applies the
// synonym table.
func canonicalProduct(phrase string) string {
	words := splitWords(phrase)
	var kept []string
	for _, w := range words {
		if match.IsArticle(w) || w == "of" || w == "them" || w == "those" {
			continue
		}
		kept = append(kept, w)
	}
	phrase = strings.Join(kept, " ")
	if syn, ok := productSynonyms[phrase]; ok {
		return syn
	}
	if syn, ok := productSynonyms[match.Singular(phrase)]; ok {
		return syn
	}
	return phrase
}

// matchingItems finds active items whose name or type matches the target
// phrase. An empty phrase means "it/that": the most recent active item.
func matchingItems(snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, phrase string) []*models.OrderItem {
	active := ord.ActiveItems()
	if len(active) == 0 {
		return nil
	}
	if phrase == "" {
		last := active[len(active)-1]
		var same []*models.OrderItem
		for _, it := range active {
			if it.MenuItemID == last.MenuItemID && it.ItemType == last.ItemType {
				same = append(same, it)
			}
		}
		return same
	}

	singular := match.Singular(phrase)
	var out []*models.OrderItem
	for _, it := range active {
		name := m.Normalize(it.DisplayName)
		typeName := ""
		if t := snap.ItemType(it.ItemType); t != nil {
			typeName = m.Normalize(t.DisplayName)
		}
		if match.ContainsWholePhrase(name, singular) || match.ContainsWholePhrase(singular, name) ||
			typeName == singular || it.ItemType == singular {
			out = append(out, it)
		}
	}
	return out
}

func plural(label string, n int) string {
	if n == 1 {
		return label
	}
	if strings.HasSuffix(label, "s") {
		return label
	}
	return label + "s"
}
