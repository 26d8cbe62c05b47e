package pipeline

import (
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"
)

type cachedOutcome struct {
	result Result
	stage  Stage
}

// resultCache remembers outcomes by content digest. A nil cache never hits.
type resultCache struct {
	entries *lru.Cache[string, cachedOutcome]
}

func newResultCache(size int) (*resultCache, error) {
	if size <= 0 {
		return nil, nil
	}

	entries, err := lru.New[string, cachedOutcome](size)
	if err != nil {
		return nil, err
	}
	return &resultCache{entries: entries}, nil
}

func (c *resultCache) get(digest string) (*Result, Stage, bool) {
	if c == nil {
		return nil, "", false
	}

	entry, ok := c.entries.Get(digest)
	if !ok {
		return nil, "", false
	}
	return entry.result.clone(), entry.stage, true
}

func (c *resultCache) add(digest string, result *Result, stage Stage) {
	if c == nil {
		return
	}
	c.entries.Add(digest, cachedOutcome{result: *result.clone(), stage: stage})
}

func (c *resultCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func (r *Result) clone() *Result {
	out := *r
	out.Schemes = append([]string{}, r.Schemes...)
	return &out
}

// Digest is the hex blake3-256 of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
