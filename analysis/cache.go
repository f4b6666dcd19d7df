package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/cnf/structhash"
)

// identity returns a stable content hash for g, used (together with k) as
// the FIRST_k/FOLLOW_k cache key (spec.md §3's "Cache entries ... keyed by
// (k, grammar identity)"). It intentionally hashes production ids, not a
// pointer, so two Grammar values compiled from equal Cfgs share a cache
// key.
func (g *Grammar) identity() string {
	h := sha256.New()
	for _, p := range g.prods {
		h.Write(p.id[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// cacheKey derives the structhash-backed key for a (k, grammar identity)
// pair, grounded on gorgo's lr/earley.go use of structhash.Hash for item-
// identity keys.
func cacheKey(grammarIdentity string, k int) string {
	key, err := structhash.Hash(struct {
		Grammar string
		K       int
	}{Grammar: grammarIdentity, K: k}, 1)
	if err != nil {
		// structhash only fails on unhashable types; our key struct never
		// is, so this is unreachable in practice.
		panic(err)
	}
	return key
}

// FirstCache memoizes FIRST_k results per k. Entries are immutable once
// written; lookup-or-compute (see ComputeFirstK) is the only mutation.
type FirstCache struct {
	mu      sync.RWMutex
	entries map[string]*FirstResult
}

func NewFirstCache() *FirstCache {
	return &FirstCache{entries: map[string]*FirstResult{}}
}

func (c *FirstCache) get(identity string, k int) (*FirstResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[cacheKey(identity, k)]
	return r, ok
}

func (c *FirstCache) put(identity string, k int, r *FirstResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(identity, k)] = r
}

// FollowCache memoizes FOLLOW_k results per k, each depending on a
// completed FirstCache entry for the same k.
type FollowCache struct {
	mu      sync.RWMutex
	entries map[string]*FollowResult
}

func NewFollowCache() *FollowCache {
	return &FollowCache{entries: map[string]*FollowResult{}}
}

func (c *FollowCache) get(identity string, k int) (*FollowResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[cacheKey(identity, k)]
	return r, ok
}

func (c *FollowCache) put(identity string, k int, r *FollowResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(identity, k)] = r
}
