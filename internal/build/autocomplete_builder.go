package build

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/forumsearch/core/internal/autocomplete"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/store"
)

// AutocompleteBuilder builds weighted prefix tries from raw post
// titles, one per subreddit plus a combined "all" trie, per spec.md
// §4.8's "builder scoring" note on recency_days/recency_multiplier.
// Unlike the bm25/tfidf/vector builders it has no shard or version
// concept: Suggester.load reads "<label>.bin" directly, so a rebuild
// simply overwrites the file in place.
type AutocompleteBuilder struct {
	store    Store
	settings *config.Settings
	progress *Progress
}

// NewAutocompleteBuilder returns a builder writing trie files under
// settings.AutocompleteDir().
func NewAutocompleteBuilder(st Store, settings *config.Settings, progress *Progress) *AutocompleteBuilder {
	return &AutocompleteBuilder{store: st, settings: settings, progress: progress}
}

// BuildSubreddit builds (or rebuilds) the trie for one subreddit,
// scored from its own posts only.
func (b *AutocompleteBuilder) BuildSubreddit(subreddit string) (Summary, error) {
	posts, err := b.store.ListBySubreddits([]string{subreddit})
	if err != nil {
		return Summary{}, err
	}
	return b.buildLabel(subreddit, posts)
}

// BuildAll rebuilds every subreddit's trie plus the global "all" trie
// covering every post, matching the suggester's "all" fallback label.
func (b *AutocompleteBuilder) BuildAll() ([]Summary, error) {
	assignments, err := b.store.AllShardAssignments()
	if err != nil {
		return nil, err
	}
	subs := make([]string, 0, len(assignments))
	for subreddit := range assignments {
		subs = append(subs, subreddit)
	}
	sort.Strings(subs)

	all, err := b.store.ListBySubreddits(subs)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(subs)+1)
	byLabel := make(map[string][]store.RawPost, len(subs))
	for _, p := range all {
		label := strings.ToLower(strings.TrimSpace(p.Subreddit))
		byLabel[label] = append(byLabel[label], p)
	}
	for _, subreddit := range subs {
		summary, err := b.buildLabel(subreddit, byLabel[subreddit])
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}

	allSummary, err := b.buildLabel("all", all)
	if err != nil {
		return summaries, err
	}
	return append(summaries, allSummary), nil
}

// buildLabel inserts one term per post title (plus individual title
// words, so a prefix search matches mid-title too) into a fresh trie,
// scored by recency: posts within RecencyDays get their score
// multiplied by RecencyMultiplier, favoring newer discussion topics
// over older ones with the same raw frequency.
func (b *AutocompleteBuilder) buildLabel(label string, posts []store.RawPost) (Summary, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		label = "all"
	}

	b.progress.Start("autocomplete", label)
	if len(posts) == 0 {
		b.progress.Done("autocomplete", label, 0, 0)
		return Summary{ShardID: label}, nil
	}

	trie := autocomplete.NewTrie()
	cutoff := time.Now().AddDate(0, 0, -b.settings.Autocomplete.RecencyDays).Unix()

	termScores := make(map[string]float64)
	for _, p := range posts {
		weight := 1.0
		if p.CreatedUTC >= cutoff {
			weight = b.settings.Autocomplete.RecencyMultiplier
		}
		for _, term := range candidateTerms(p.Title) {
			termScores[term] += weight
		}
	}
	for term, score := range termScores {
		trie.Insert(term, score)
	}

	path := filepath.Join(b.settings.AutocompleteDir(), label+".bin")
	if err := trie.Save(path); err != nil {
		b.progress.Fail("autocomplete", label, err)
		return Summary{}, err
	}

	b.progress.Done("autocomplete", label, 0, len(posts))
	return Summary{ShardID: label, Subreddits: []string{label}, DocCount: len(posts), FilePath: path}, nil
}

// candidateTerms returns the post title itself plus each individual
// word, lowercased, so autocomplete matches both "how to" prefixes and
// a prefix starting mid-title.
func candidateTerms(title string) []string {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return nil
	}
	terms := []string{title}
	terms = append(terms, strings.Fields(title)...)
	return terms
}
