package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/forumsearch/core/internal/autocomplete"
	"github.com/forumsearch/core/internal/config"
	"github.com/forumsearch/core/internal/forumerr"
	"github.com/forumsearch/core/internal/fusion"
	"github.com/forumsearch/core/internal/page"
	"github.com/forumsearch/core/internal/search"
	"github.com/forumsearch/core/internal/store"
	"github.com/forumsearch/core/pkg/version"
)

// Server is the MCP tool server over the already-built search
// indexes: it does not build or rebuild anything itself, only reads
// whatever version is currently active.
type Server struct {
	mcp       *mcp.Server
	engine    *search.Engine
	suggester *autocomplete.Suggester
	store     *store.DB
	settings  *config.Settings
}

// NewServer constructs the MCP server and registers its three tools:
// search, suggest, index_status.
func NewServer(engine *search.Engine, suggester *autocomplete.Suggester, st *store.DB, settings *config.Settings) *Server {
	s := &Server{
		engine:    engine,
		suggester: suggester,
		store:     st,
		settings:  settings,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "forumsearch",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s
}

// SearchInput is the search tool's input schema.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"the search query"`
	Subreddit string `json:"subreddit,omitempty" jsonschema:"restrict to one subreddit's shard"`
	IndexType string `json:"index_type,omitempty" jsonschema:"restrict to one source: bm25, tfidf, vector (default: hybrid fusion)"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"results per page, default configured default_page_size"`
	Cursor    string `json:"cursor,omitempty" jsonschema:"opaque pagination cursor returned by a previous call"`
}

// SearchResultOutput is one fused hit, with its per-source
// contributions kept for explainability.
type SearchResultOutput struct {
	DocID       string  `json:"doc_id"`
	Score       float64 `json:"score"`
	ShardID     string  `json:"shard_id"`
	BM25Score   float64 `json:"bm25_score,omitempty"`
	TFIDFScore  float64 `json:"tfidf_score,omitempty"`
	VectorScore float64 `json:"vector_score,omitempty"`
}

// SearchOutput is the search tool's output schema.
type SearchOutput struct {
	Results    []SearchResultOutput `json:"results"`
	NextCursor string                `json:"next_cursor,omitempty"`
	TotalHits  int                   `json:"total_hits"`
}

// SuggestInput is the suggest tool's input schema.
type SuggestInput struct {
	Prefix    string `json:"prefix" jsonschema:"the title prefix to complete"`
	Subreddit string `json:"subreddit,omitempty" jsonschema:"prefer this subreddit's trie, falling back to the global one"`
	K         int    `json:"k,omitempty" jsonschema:"number of suggestions, default configured max_suggestions"`
}

// SuggestionOutput is one autocomplete suggestion.
type SuggestionOutput struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// SuggestOutput is the suggest tool's output schema.
type SuggestOutput struct {
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// IndexStatusInput is the index_status tool's (empty) input schema.
type IndexStatusInput struct{}

// IndexVersionOutput mirrors one active index version row.
type IndexVersionOutput struct {
	IndexType string `json:"index_type"`
	ShardID   string `json:"shard_id"`
	Version   int    `json:"version"`
	DocCount  int    `json:"doc_count"`
}

// IndexStatusOutput is the index_status tool's output schema.
type IndexStatusOutput struct {
	ShardCount     int                  `json:"shard_count"`
	ActiveVersions []IndexVersionOutput `json:"active_versions"`
	PendingJobs    map[string]int       `json:"pending_jobs"`
	RunningJobs    int                  `json:"running_jobs"`
	RecentFailures int                  `json:"recent_failures"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid BM25/TF-IDF/vector search over indexed forum posts, fused into one ranked result list.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "suggest",
		Description: "Autocomplete suggestions for a post title prefix, optionally scoped to one subreddit.",
	}, s.suggestHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report which index versions are active, how many shards exist, and outstanding/failed build jobs.",
	}, s.indexStatusHandler)
}

func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, SearchOutput{}, invalidParams("query is required")
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = s.settings.Search.DefaultPageSize
	}
	if pageSize > s.settings.Search.MaxPageSize {
		pageSize = s.settings.Search.MaxPageSize
	}
	offset := page.DecodeCursor(input.Cursor)

	hits, err := s.engine.Search(ctx, search.Request{
		Query:     input.Query,
		Subreddit: input.Subreddit,
		IndexType: input.IndexType,
		TopK:      offset + pageSize,
		Fusion:    search.FusionLinear,
	})
	if err != nil {
		return nil, SearchOutput{}, mapError(err)
	}

	pg := page.FromResults(hits, offset, pageSize)
	output := SearchOutput{
		Results:    make([]SearchResultOutput, 0, len(pg.Items)),
		NextCursor: pg.NextCursor,
		TotalHits:  pg.TotalHits,
	}
	for _, h := range pg.Items {
		output.Results = append(output.Results, toSearchResultOutput(h))
	}
	return nil, output, nil
}

func toSearchResultOutput(h fusion.ScoredHit) SearchResultOutput {
	return SearchResultOutput{
		DocID:       h.DocID,
		Score:       h.Score,
		ShardID:     h.ShardID,
		BM25Score:   h.BM25Score,
		TFIDFScore:  h.TFIDFScore,
		VectorScore: h.VectorScore,
	}
}

func (s *Server) suggestHandler(_ context.Context, _ *mcp.CallToolRequest, input SuggestInput) (
	*mcp.CallToolResult,
	SuggestOutput,
	error,
) {
	if input.Prefix == "" {
		return nil, SuggestOutput{}, invalidParams("prefix is required")
	}

	suggestions := s.suggester.Suggest(input.Prefix, input.Subreddit, input.K)
	output := SuggestOutput{Suggestions: make([]SuggestionOutput, 0, len(suggestions))}
	for _, sug := range suggestions {
		output.Suggestions = append(output.Suggestions, SuggestionOutput{Term: sug.Term, Score: sug.Score})
	}
	return nil, output, nil
}

func (s *Server) indexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	active, err := s.store.GetAllActive()
	if err != nil {
		return nil, IndexStatusOutput{}, mapError(forumerr.Wrap(forumerr.KindStoreBusy, err))
	}

	output := IndexStatusOutput{ActiveVersions: make([]IndexVersionOutput, 0, len(active))}
	for _, v := range active {
		output.ActiveVersions = append(output.ActiveVersions, IndexVersionOutput{
			IndexType: v.IndexType,
			ShardID:   v.ShardID,
			Version:   v.Version,
			DocCount:  v.DocCount,
		})
	}

	assignments, err := s.store.AllShardAssignments()
	if err != nil {
		return nil, IndexStatusOutput{}, mapError(forumerr.Wrap(forumerr.KindStoreBusy, err))
	}
	shards := make(map[string]struct{})
	for _, shardID := range assignments {
		shards[shardID] = struct{}{}
	}
	output.ShardCount = len(shards)

	output.PendingJobs = make(map[string]int)
	for _, jobType := range []string{"crawl", "preprocess", "build_index", "rebuild"} {
		count, err := s.store.PendingCount(jobType)
		if err != nil {
			return nil, IndexStatusOutput{}, mapError(forumerr.Wrap(forumerr.KindStoreBusy, err))
		}
		output.PendingJobs[jobType] = count
	}

	running, err := s.store.GetRunning()
	if err != nil {
		return nil, IndexStatusOutput{}, mapError(forumerr.Wrap(forumerr.KindStoreBusy, err))
	}
	output.RunningJobs = len(running)

	failed, err := s.store.GetFailed(20)
	if err != nil {
		return nil, IndexStatusOutput{}, mapError(forumerr.Wrap(forumerr.KindStoreBusy, err))
	}
	output.RecentFailures = len(failed)

	return nil, output, nil
}

// Serve runs the MCP server over stdio until ctx is canceled. Per the
// MCP stdio transport contract, stdout carries JSON-RPC frames
// exclusively — callers must route all logging to a file (see
// internal/logging.SetupMCPMode) before calling Serve.
func (s *Server) Serve(ctx context.Context) error {
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		slog.Error("mcp server stopped with error", slog.String("error", err.Error()))
		return err
	}
	slog.Info("mcp server stopped")
	return nil
}
