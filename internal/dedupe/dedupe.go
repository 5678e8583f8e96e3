package dedupe

import (
	"sync"

	"github.com/linkfeed/linkfeed/internal/urlutil"
)

// Index tracks item identifiers that are already part of a feed so that
// repeated runs never produce the same item twice.
type Index struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// AddIDs seeds the index with identifiers from an existing feed.
func (x *Index) AddIDs(ids []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, id := range ids {
		x.seen[id] = struct{}{}
	}
}

// IsDuplicate reports whether the URL's deterministic identifier has been
// observed before.
func (x *Index) IsDuplicate(url string) bool {
	id := urlutil.GenerateID(url)
	x.mu.Lock()
	defer x.mu.Unlock()
	_, ok := x.seen[id]
	return ok
}

// MarkSeen records the URL's identifier and returns it.
func (x *Index) MarkSeen(url string) string {
	id := urlutil.GenerateID(url)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.seen[id] = struct{}{}
	return id
}
