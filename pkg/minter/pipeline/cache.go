package pipeline

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/NethermindEth/solmint/pkg/minter/nft"
)

const (
	DefaultUploadCacheSize = 1000
	DefaultUploadCacheTTL  = 1 * time.Hour
)

type CachedUploads struct {
	Asset    *nft.UploadedAsset
	Metadata *nft.MetadataDocument
}

// UploadCache remembers what was already uploaded for a draft fingerprint,
// so an explicit retry after a failed submission does not upload again.
// A nil *UploadCache is valid and caches nothing.
type UploadCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[common.Hash, CachedUploads]
}

func NewUploadCache(size int, ttl time.Duration) *UploadCache {
	if size <= 0 {
		size = DefaultUploadCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultUploadCacheTTL
	}

	return &UploadCache{
		lru: expirable.NewLRU[common.Hash, CachedUploads](size, nil, ttl),
	}
}

func (c *UploadCache) Get(key common.Hash) CachedUploads {
	if c == nil {
		return CachedUploads{}
	}

	entry, _ := c.lru.Get(key)
	return entry
}

func (c *UploadCache) StoreAsset(key common.Hash, asset *nft.UploadedAsset) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, _ := c.lru.Peek(key)
	if entry.Asset == nil || entry.Asset.Uri != asset.Uri {
		entry.Metadata = nil
	}
	entry.Asset = asset
	c.lru.Add(key, entry)
}

func (c *UploadCache) StoreMetadata(key common.Hash, document *nft.MetadataDocument) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, _ := c.lru.Peek(key)
	entry.Metadata = document
	c.lru.Add(key, entry)
}

func (c *UploadCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
