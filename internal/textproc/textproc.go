// Package textproc provides a minimal default TextPreprocessor for
// query-time tokenization. The full preprocessing pipeline (HTML
// stripping, stemming, stopword removal tuned against the crawl
// corpus) lives outside this repository; this package exists only so
// the CLI and MCP server have a working default to pass through
// internal/search's TextPreprocessor interface without requiring a
// caller to supply one.
package textproc

import (
	"strings"
	"unicode"
)

// basicStopwords mirrors the reference pipeline's minimal English stop
// list — small and deliberately conservative, since dropping a query
// term a user typed on purpose is worse than leaving in a common word.
var basicStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {}, "was": {},
	"were": {}, "with": {},
}

// Default is a stopword-filtering lowercase tokenizer: it splits on
// anything that isn't a letter or digit, lowercases, and drops basic
// stopwords. It performs no stemming, so a query for "running" will
// not match a document indexed under the stem "run" — callers needing
// that need to supply their own TextPreprocessor.
type Default struct{}

// NewDefault returns the default tokenizer.
func NewDefault() Default { return Default{} }

// Tokenize implements internal/search's TextPreprocessor interface.
func (Default) Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		lower := strings.ToLower(f)
		if _, stop := basicStopwords[lower]; stop {
			continue
		}
		tokens = append(tokens, lower)
	}
	return tokens
}
