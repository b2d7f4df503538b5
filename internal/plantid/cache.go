package plantid

import (
	"context"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedKB decorates a KnowledgeBase with an in-process LRU cache keyed by
// normalized species name. Repeated identifications of common species skip
// the two network round trips of a lookup. Negative results are not cached.
type CachedKB struct {
	kb    KnowledgeBase
	cache *lru.Cache[string, *KBDetail]
	log   *slog.Logger
}

// NewCachedKB wraps kb with an LRU cache of the given size.
func NewCachedKB(kb KnowledgeBase, size int, log *slog.Logger) (*CachedKB, error) {
	if log == nil {
		log = slog.Default()
	}
	cache, err := lru.New[string, *KBDetail](size)
	if err != nil {
		return nil, err
	}
	return &CachedKB{
		kb:    kb,
		cache: cache,
		log:   log.With("component", "kb_cache"),
	}, nil
}

// LookupSpecies returns the cached detail when present, otherwise delegates
// to the underlying knowledge base and caches the result.
func (c *CachedKB) LookupSpecies(ctx context.Context, name string) (*KBDetail, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	if detail, ok := c.cache.Get(key); ok {
		c.log.DebugContext(ctx, "KB cache hit", "species", name)
		return detail, nil
	}

	detail, err := c.kb.LookupSpecies(ctx, name)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, detail)
	c.log.DebugContext(ctx, "KB cache miss, stored lookup result", "species", name)
	return detail, nil
}
