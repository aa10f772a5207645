package cmd

import (
	"github.com/forumsearch/core/internal/autocomplete"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/search"
	"github.com/forumsearch/core/internal/shard"
	"github.com/forumsearch/core/internal/staticembed"
	"github.com/forumsearch/core/internal/store"
	"github.com/forumsearch/core/internal/textproc"
)

// newEngine builds a search.Engine over st using the default
// tokenizer/encoder: every caller that needs to run a query (the
// search CLI command and the MCP server) shares this construction.
func newEngine(settings *config.Settings, st *store.DB) *search.Engine {
	router := shard.NewRouter(st, st)
	preprocessor := textproc.NewDefault()
	encoder := staticembed.New(settings.Vector.EmbeddingDim)

	const searcherCacheSize = 64
	bm25 := search.NewBM25Searcher(st, router, settings, preprocessor, searcherCacheSize)
	tfidf := search.NewTFIDFSearcher(st, router, settings, preprocessor, searcherCacheSize)
	vector := search.NewVectorSearcher(st, router, settings, encoder, searcherCacheSize)

	return search.NewEngine(bm25, tfidf, vector, settings)
}

// newSuggester builds an autocomplete.Suggester over the configured
// autocomplete directory.
func newSuggester(settings *config.Settings) *autocomplete.Suggester {
	return autocomplete.NewSuggester(settings.AutocompleteDir(), settings.Autocomplete.MaxSuggestions)
}
