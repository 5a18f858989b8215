// Package textsim provides deterministic text normalization and keyword
// similarity used to match new activity titles against cached response
// patterns. It is intentionally small and side-effect free:
//
//   - Unicode-aware accent stripping (NFD decomposition, combining marks removed)
//   - Fixed Portuguese stopword list (articles and common verb forms)
//   - Jaccard similarity over keyword sets, stable tie-breaking
//
// All functions are pure; the package holds no state and is safe for
// concurrent use.
package textsim

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are dropped during normalization. The list matches the source
// language of the activity titles (articles, contractions, and the most
// common auxiliary verb forms).
var stopwords = map[string]struct{}{
	"o": {}, "a": {}, "os": {}, "as": {}, "um": {}, "uma": {},
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"em": {}, "no": {}, "na": {}, "nos": {}, "nas": {},
	"para": {}, "pra": {}, "pro": {},
	"vou": {}, "vamos": {}, "estou": {}, "to": {}, "indo": {}, "fazer": {},
}

// nonWordRE matches everything that is neither a word character nor
// whitespace. Letters and digits are kept Unicode-wide so that categories
// written with emoji or non-Latin text degrade gracefully.
var nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// stripAccents removes combining marks after NFD decomposition, turning
// e.g. "reunião" into "reuniao".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text, strips accents and punctuation, removes
// stopwords, and collapses whitespace. The result is the canonical
// "activity pattern" form stored in the response cache.
func Normalize(text string) string {
	s := strings.ToLower(text)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = nonWordRE.ReplaceAllString(s, "")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, w := range fields {
		if _, skip := stopwords[w]; skip {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Keywords extracts at most three qualifying keywords (length > 3 runes)
// from the normalized form of text, preserving original order.
func Keywords(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	out := make([]string, 0, 3)
	for _, w := range strings.Split(normalized, " ") {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		out = append(out, w)
		if len(out) == 3 {
			break
		}
	}
	return out
}
