// Package match implements the deterministic utterance matcher: alias,
// must-match, and qualifier resolution against a catalog snapshot. Matching
// is pattern- and alias-based, never statistical; when more than one entity
// fits, the matcher reports all candidates and the caller asks.
package match

import (
	"strings"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/pkg/models"
)

// qualifierWindow is how far (in characters) around a matched span the
// matcher looks for qualifier phrases.
const qualifierWindow = 15

// Matcher resolves utterances against one immutable snapshot. Stateless
// apart from the snapshot; safe for concurrent use.
type Matcher struct {
	snap *catalog.Snapshot
}

// New creates a matcher over a snapshot.
func New(snap *catalog.Snapshot) *Matcher { return &Matcher{snap: snap} }

// Normalize applies the full normalization pipeline using the snapshot's
// abbreviation table.
func (m *Matcher) Normalize(raw string) string {
	return Normalize(raw, m.snap.Abbreviations())
}

// ── Tokenization ────────────────────────────────────────────

type token struct {
	word   string
	folded string
	start  int // char offset in the normalized text
	end    int
}

func tokenize(norm string) []token {
	var toks []token
	start := -1
	for i, r := range norm {
		if r == ' ' {
			if start >= 0 {
				w := norm[start:i]
				toks = append(toks, token{word: w, folded: Singular(w), start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		w := norm[start:]
		toks = append(toks, token{word: w, folded: Singular(w), start: start, end: len(norm)})
	}
	return toks
}

// findPhrase locates the first unclaimed whole-word occurrence of phrase,
// returning token index bounds [lo, hi).
func findPhrase(toks []token, phrase string, claimed []bool) (int, int, bool) {
	pw := foldWords(strings.Fields(phrase))
	if len(pw) == 0 {
		return 0, 0, false
	}
scan:
	for i := 0; i+len(pw) <= len(toks); i++ {
		for j, w := range pw {
			if claimed[i+j] || toks[i+j].folded != w {
				continue scan
			}
		}
		return i, i + len(pw), true
	}
	return 0, 0, false
}

// ── Entity scanning ─────────────────────────────────────────

// EntityMatch is one catalog entity found in an utterance.
type EntityMatch struct {
	Ref        catalog.AliasRef
	Span       [2]int // char offsets in the normalized text
	Count      int    // stated quantity, default 1
	Qualifiers map[models.QualifierCategory]string
}

// ScanEntities finds all alias matches in normalized text, longest phrase
// first so specific aliases beat their fragments ("iced chai" over "chai").
// Each word binds to at most one entity. Must-match and required-phrase
// gates are applied before a candidate counts as matched.
func (m *Matcher) ScanEntities(norm string) []EntityMatch {
	toks := tokenize(norm)
	if len(toks) == 0 {
		return nil
	}
	claimed := make([]bool, len(toks))

	var out []EntityMatch
	for _, ref := range m.snap.AliasRefs() {
		lo, hi, ok := findPhrase(toks, ref.Phrase, claimed)
		if !ok {
			continue
		}
		if !m.passesGates(ref, norm) {
			continue
		}
		for i := lo; i < hi; i++ {
			claimed[i] = true
		}
		span := [2]int{toks[lo].start, toks[hi-1].end}
		out = append(out, EntityMatch{
			Ref:        ref,
			Span:       span,
			Count:      countBefore(toks, lo, claimed),
			Qualifiers: m.qualifiersNear(norm, span),
		})
	}

	// Order by position in the utterance, not by alias length.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Span[0] > out[j].Span[0]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// passesGates applies must-match (ingredients) and required-match-phrase
// (menu items) constraints: the utterance must contain one of the listed
// phrases, or the candidate is suppressed even when its bare name occurs.
func (m *Matcher) passesGates(ref catalog.AliasRef, norm string) bool {
	switch ref.Kind {
	case models.EntityIngredient:
		ing := m.snap.Ingredient(ref.Target)
		if ing == nil || !ing.Available {
			return false
		}
		return containsAny(norm, ing.MustMatch)
	case models.EntityMenuItem:
		mi := m.snap.MenuItem(ref.Target)
		if mi == nil || !mi.Available {
			return false
		}
		return containsAny(norm, mi.RequiredMatchPhrases)
	default:
		return true
	}
}

func containsAny(norm string, phrases []string) bool {
	if len(phrases) == 0 {
		return true
	}
	for _, p := range phrases {
		if ContainsWholePhrase(norm, Normalize(p, nil)) {
			return true
		}
	}
	return false
}

// countBefore reads a stated quantity immediately preceding a span,
// skipping filler words: "two lattes" → 2, "a bagel" → 1.
func countBefore(toks []token, lo int, claimed []bool) int {
	for i := lo - 1; i >= 0; i-- {
		if claimed[i] {
			break
		}
		w := toks[i].word
		if IsArticle(w) {
			continue
		}
		if n, ok := ParseCount(w); ok {
			claimed[i] = true
			return n
		}
		break
	}
	return 1
}

// qualifiersNear extracts qualifiers within the character window around a
// span, at most one per category. Longer qualifier phrases win ties.
func (m *Matcher) qualifiersNear(norm string, span [2]int) map[models.QualifierCategory]string {
	lo := span[0] - qualifierWindow
	if lo < 0 {
		lo = 0
	}
	hi := span[1] + qualifierWindow
	if hi > len(norm) {
		hi = len(norm)
	}
	window := norm[lo:hi]

	var found map[models.QualifierCategory]string
	for _, q := range m.snap.Qualifiers() {
		if _, taken := found[q.Category]; taken {
			continue
		}
		if ContainsWholePhrase(window, q.Phrase) {
			if found == nil {
				found = make(map[models.QualifierCategory]string, 3)
			}
			found[q.Category] = q.Normalized
		}
	}
	return found
}

// ── Option matching ─────────────────────────────────────────

// OptionMatch is one resolved attribute option with quantity and qualifiers.
type OptionMatch struct {
	Option     catalog.Option
	Count      int
	Qualifiers map[models.QualifierCategory]string
}

// OptionOutcome is the result of matching an utterance against one
// attribute's option set. Selected and Candidates are mutually exclusive:
// a non-empty Candidates list means the caller must disambiguate.
type OptionOutcome struct {
	Selected   []OptionMatch
	Candidates []catalog.Option
}

// MatchOptions resolves normalized text against an attribute's options in
// three phases: exact match, input-as-fragment-of-option (ambiguous when
// several options share the fragment), and option-name-within-input (may
// yield several selections for multi-select attributes).
func (m *Matcher) MatchOptions(attr *catalog.AttributeView, norm string) OptionOutcome {
	options := eligibleOptions(attr, norm)
	if len(options) == 0 {
		return OptionOutcome{}
	}

	stripped, count := stripLeadCount(norm)

	// Phase 1: the whole input names exactly one option.
	for _, opt := range options {
		for _, name := range optionPhrases(opt) {
			if phraseEqual(stripped, name) {
				return OptionOutcome{Selected: []OptionMatch{{
					Option:     opt,
					Count:      count,
					Qualifiers: m.qualifiersNear(norm, [2]int{0, len(norm)}),
				}}}
			}
		}
	}

	// Phase 2: the input is a fragment of one or more option names
	// ("regular" → "regular milk"). One hit selects; several disambiguate.
	if stripped != "" {
		var partial []catalog.Option
		for _, opt := range options {
			for _, name := range optionPhrases(opt) {
				if ContainsWholePhrase(name, stripped) {
					partial = append(partial, opt)
					break
				}
			}
		}
		if len(partial) == 1 {
			return OptionOutcome{Selected: []OptionMatch{{
				Option:     partial[0],
				Count:      count,
				Qualifiers: m.qualifiersNear(norm, [2]int{0, len(norm)}),
			}}}
		}
		if len(partial) > 1 {
			return OptionOutcome{Candidates: partial}
		}
	}

	// Phase 3: option names occur inside a longer utterance
	// ("everything bagel with bacon and egg"). Longest names first so
	// specific options claim their words before fragments do.
	toks := tokenize(norm)
	claimed := make([]bool, len(toks))
	type cand struct {
		opt    catalog.Option
		phrase string
	}
	var ordered []cand
	for _, opt := range options {
		for _, name := range optionPhrases(opt) {
			ordered = append(ordered, cand{opt: opt, phrase: name})
		}
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j-1].phrase) < len(ordered[j].phrase); j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}

	var selected []OptionMatch
	matched := make(map[string]bool)
	for _, c := range ordered {
		if matched[c.opt.Slug] {
			continue
		}
		lo, hi, ok := findPhrase(toks, c.phrase, claimed)
		if !ok {
			continue
		}
		for i := lo; i < hi; i++ {
			claimed[i] = true
		}
		matched[c.opt.Slug] = true
		span := [2]int{toks[lo].start, toks[hi-1].end}
		selected = append(selected, OptionMatch{
			Option:     c.opt,
			Count:      countBefore(toks, lo, claimed),
			Qualifiers: m.qualifiersNear(norm, span),
		})
	}
	return OptionOutcome{Selected: selected}
}

// eligibleOptions filters to available options passing their must-match
// gate against the full utterance.
func eligibleOptions(attr *catalog.AttributeView, norm string) []catalog.Option {
	out := make([]catalog.Option, 0, len(attr.ResolvedOptions))
	for _, opt := range attr.ResolvedOptions {
		if !opt.Available {
			continue
		}
		if !containsAny(norm, opt.MustMatch) {
			continue
		}
		out = append(out, opt)
	}
	return out
}

func optionPhrases(opt catalog.Option) []string {
	names := make([]string, 0, 1+len(opt.Aliases))
	names = append(names, Normalize(opt.DisplayName, nil))
	for _, a := range opt.Aliases {
		names = append(names, Normalize(a, nil))
	}
	return names
}

func phraseEqual(a, b string) bool {
	aw := foldWords(strings.Fields(a))
	bw := foldWords(strings.Fields(b))
	return len(aw) == len(bw) && wordsEqual(aw, bw)
}

// stripLeadCount removes a leading quantity and filler words:
// "3 sugars" → ("sugars", 3); "the large one" → ("large one", 1).
func stripLeadCount(norm string) (string, int) {
	words := strings.Fields(norm)
	count := 1
	i := 0
	for i < len(words) {
		if IsArticle(words[i]) {
			i++
			continue
		}
		if n, ok := ParseCount(words[i]); ok && i+1 < len(words) {
			count = n
			i++
			continue
		}
		break
	}
	return strings.Join(words[i:], " "), count
}

// ── Booleans and intents ────────────────────────────────────

var negations = map[string]bool{"no": true, "not": true, "without": true, "hold": true}

// MatchBoolean looks for a boolean attribute's name in the utterance.
// Returns nil when the attribute is not mentioned; otherwise true, or false
// when a negation word precedes the mention ("not toasted").
func (m *Matcher) MatchBoolean(attr *catalog.AttributeView, norm string) *bool {
	name := Normalize(attr.DisplayName, nil)
	toks := tokenize(norm)
	claimed := make([]bool, len(toks))
	lo, _, ok := findPhrase(toks, name, claimed)
	if !ok {
		return nil
	}
	v := true
	for i := lo - 1; i >= 0 && i >= lo-2; i-- {
		if negations[toks[i].word] {
			v = false
			break
		}
	}
	return &v
}

// Intent classifies menu-independent replies. Exact phrase equality always
// counts; for short utterances (four words or fewer) a whole-phrase hit
// also counts, so "yes please" still reads as affirmative.
func (m *Matcher) Intent(norm string) (models.ResponseIntent, bool) {
	short := len(strings.Fields(norm)) <= 4
	for _, p := range m.snap.ResponsePatterns() {
		phrase := Normalize(p.Phrase, nil)
		if norm == phrase {
			return p.Intent, true
		}
		if short && ContainsWholePhrase(norm, phrase) {
			return p.Intent, true
		}
	}
	return "", false
}
