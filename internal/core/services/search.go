package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
	"github.com/meridian-labs/docindex/internal/core/ports/driving"
	"github.com/meridian-labs/docindex/internal/logger"
)

// Ensure Search implements the interface.
var _ driving.SearchService = (*Search)(nil)

// DefaultTopK is used when a request does not bound its result count.
const DefaultTopK = 5

// DefaultCacheTTL is how long search results stay cached. Re-indexing
// does not invalidate entries; staleness is bounded by this TTL.
const DefaultCacheTTL = 6 * time.Hour

// snippetLimit caps snippet length in runes.
const snippetLimit = 300

// Search answers semantic queries scoped to the caller's accessible
// documents. Stages: cache lookup, scope resolution, query embedding,
// partitioned ANN query, filtering, caching and audit logging.
type Search struct {
	store    driven.ChunkStore
	vector   driven.VectorIndex
	embedder driven.EmbeddingService
	access   driven.AccessResolver
	cache    driven.ResultCache
	queryLog driven.QueryLog
	cacheTTL time.Duration
}

// NewSearch creates the search service. The cache and queryLog are
// optional: a nil cache disables result caching, a nil queryLog disables
// auditing.
func NewSearch(
	store driven.ChunkStore,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	access driven.AccessResolver,
	cache driven.ResultCache,
	queryLog driven.QueryLog,
	cacheTTL time.Duration,
) *Search {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Search{
		store:    store,
		vector:   vector,
		embedder: embedder,
		access:   access,
		cache:    cache,
		queryLog: queryLog,
		cacheTTL: cacheTTL,
	}
}

// Search executes one access-scoped query.
//
// A cache hit short-circuits embedding and the ANN query and is not
// re-logged. An empty accessible set returns an empty slice without
// touching the vector index. A target outside the caller's scope fails
// with domain.ErrForbidden before any ANN work.
func (s *Search) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchHit, error) {
	logger.Section("Search Execution")

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchHit{}, nil
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	logger.Debug("User: %s, top_k: %d, target: %q", req.UserID, req.TopK, req.TargetDocumentID)

	// Cache lookup first; a hit skips embedding and ANN cost entirely.
	key := Fingerprint(req)
	if hits, ok := s.cached(ctx, key); ok {
		logger.Info("Cache hit (%d results)", len(hits))
		return hits, nil
	}

	started := time.Now()

	// Resolve the caller's scope before anything touches the index.
	accessible, err := s.access.AccessibleDocuments(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve access scope: %w", err)
	}
	if req.TargetDocumentID != "" {
		if _, ok := accessible[req.TargetDocumentID]; !ok {
			logger.Warn("User %s denied target %s", req.UserID, req.TargetDocumentID)
			return nil, fmt.Errorf("%w: document %s", domain.ErrForbidden, req.TargetDocumentID)
		}
		accessible = map[string]struct{}{req.TargetDocumentID: {}}
	}
	if len(accessible) == 0 {
		logger.Debug("Empty accessible set, returning no results")
		return []domain.SearchHit{}, nil
	}

	scope := make([]string, 0, len(accessible))
	for id := range accessible {
		scope = append(scope, id)
	}
	sort.Strings(scope)

	// Owner tenants of the accessible documents name the partitions to
	// load; nothing outside them is ever queried.
	tenantsByDoc, err := s.store.DocumentTenants(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("resolve owner tenants: %w", err)
	}
	tenants := uniqueTenants(tenantsByDoc)
	if len(tenants) == 0 {
		logger.Debug("No indexed documents in scope")
		return []domain.SearchHit{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbedderFailure, err)
	}

	logger.Debug("ANN query across %d partitions, %d scoped documents", len(tenants), len(scope))
	rawHits, err := s.vector.Search(ctx, tenants, queryVec, req.TopK, scope)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if err := s.vector.Release(ctx, tenants); err != nil {
		logger.Warn("Release partitions: %v", err)
	}

	hits := s.shapeHits(rawHits, accessible, req.TopK)
	duration := time.Since(started)
	logger.Info("Search returned %d hits in %s", len(hits), duration)

	s.cacheAndLog(ctx, key, req, hits, duration)
	return hits, nil
}

// shapeHits applies defense-in-depth scope filtering, content-hash
// deduplication, topK truncation and snippet shaping.
func (s *Search) shapeHits(raw []driven.VectorHit, accessible map[string]struct{}, topK int) []domain.SearchHit {
	seen := make(map[string]struct{}, len(raw))
	hits := make([]domain.SearchHit, 0, len(raw))

	for _, hit := range raw {
		// Even a hit the ANN layer returned for an out-of-scope document
		// is dropped rather than surfaced.
		if _, ok := accessible[hit.DocumentID]; !ok {
			logger.Warn("Dropping out-of-scope hit for document %s", hit.DocumentID)
			continue
		}
		if _, dup := seen[hit.ContentHash]; dup {
			continue
		}
		seen[hit.ContentHash] = struct{}{}

		hits = append(hits, domain.SearchHit{
			DocumentID: hit.DocumentID,
			Snippet:    Snippet(hit.Text),
			Score:      hit.Score,
		})
		if len(hits) >= topK {
			break
		}
	}
	return hits
}

// cached returns decoded results when the fingerprint key is present.
// Cache infrastructure failures degrade to a miss.
func (s *Search) cached(ctx context.Context, key string) ([]domain.SearchHit, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Cache get failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var hits []domain.SearchHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		logger.Warn("Cache entry corrupt, ignoring: %v", err)
		return nil, false
	}
	return hits, true
}

// cacheAndLog performs the write-through cache and the audit append.
// Neither failure fails the search.
func (s *Search) cacheAndLog(ctx context.Context, key string, req domain.SearchRequest, hits []domain.SearchHit, duration time.Duration) {
	if s.cache != nil {
		if payload, err := json.Marshal(hits); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
				logger.Warn("Cache set failed: %v", err)
			}
		}
	}

	if s.queryLog != nil {
		entry := &domain.QueryLogEntry{
			UserID:      req.UserID,
			DocumentID:  req.TargetDocumentID,
			QueryText:   req.Query,
			TopK:        req.TopK,
			Duration:    duration,
			ResultCount: len(hits),
			Results:     hits,
		}
		if err := s.queryLog.Append(ctx, entry); err != nil {
			logger.Warn("Query log append failed: %v", err)
		}
	}
}

// Snippet builds a length-capped excerpt with markdown-friendly line
// breaks.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetLimit {
		text = string(runes[:snippetLimit-3]) + "…"
	}
	return strings.ReplaceAll(text, "\n", "  \n")
}

// uniqueTenants collapses a document->tenant mapping into a sorted
// tenant list.
func uniqueTenants(byDoc map[string]string) []string {
	set := make(map[string]struct{}, len(byDoc))
	for _, tenant := range byDoc {
		if tenant != "" {
			set[tenant] = struct{}{}
		}
	}
	tenants := make([]string, 0, len(set))
	for tenant := range set {
		tenants = append(tenants, tenant)
	}
	sort.Strings(tenants)
	return tenants
}
