package match

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numberWords maps spelled-out counts to integers.
var numberWords = map[string]int{
	"one": 1, "a": 1, "an": 1,
	"two": 2, "couple": 2,
	"three": 3, "few": 3,
	"four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "dozen": 12,
}

// articles are stripped when they carry no quantity meaning mid-phrase.
var articles = map[string]bool{"the": true, "some": true, "my": true, "of": true}

var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize canonicalizes raw utterance text for matching: fold diacritics
// and curly quotes, lowercase, expand abbreviations from the catalog table,
// strip punctuation, collapse whitespace. The raw text stays untouched for
// display purposes.
func Normalize(raw string, abbreviations map[string]string) string {
	folded, _, err := transform.String(foldDiacritics, raw)
	if err != nil {
		folded = raw
	}
	folded = strings.NewReplacer("‘", "'", "’", "'", "“", "", "”", "").Replace(folded)

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '/':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	out := make([]string, 0, len(words))
	for _, w := range words {
		if exp, ok := abbreviations[w]; ok {
			out = append(out, strings.Fields(strings.ToLower(exp))...)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// Singular folds simple English plurals so "lattes" matches the "latte"
// alias. Deliberately conservative: only trailing -ies/-es/-s with length
// guards, no irregular forms.
func Singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && strings.HasSuffix(w, "ches"),
		len(w) > 4 && strings.HasSuffix(w, "shes"),
		len(w) > 4 && strings.HasSuffix(w, "sses"),
		len(w) > 4 && strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us"):
		return w[:len(w)-1]
	default:
		return w
	}
}

// ParseCount parses a digit string or spelled-out number word.
func ParseCount(w string) (int, bool) {
	if n, err := strconv.Atoi(w); err == nil && n > 0 && n < 100 {
		return n, true
	}
	n, ok := numberWords[w]
	return n, ok
}

// IsArticle reports whether the word is a countless filler word.
func IsArticle(w string) bool { return articles[w] }

// ContainsWholePhrase reports whether phrase occurs in text on word
// boundaries, with plural folding on both sides. Both inputs must already
// be normalized.
func ContainsWholePhrase(text, phrase string) bool {
	tw := foldWords(strings.Fields(text))
	pw := foldWords(strings.Fields(phrase))
	if len(pw) == 0 || len(pw) > len(tw) {
		return false
	}
	for i := 0; i+len(pw) <= len(tw); i++ {
		if wordsEqual(tw[i:i+len(pw)], pw) {
			return true
		}
	}
	return false
}

func foldWords(ws []string) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = Singular(w)
	}
	return out
}

func wordsEqual(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
