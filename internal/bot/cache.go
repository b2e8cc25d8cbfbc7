package bot

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type boundFlag uint8

const (
	boundExact boundFlag = iota
	boundLower
	boundUpper
)

type cacheEntry struct {
	remaining int
	score     int
	flag      boundFlag
}

// transpositionCache memoizes node scores by Zobrist key. Scores are stored
// relative to the node so terminal distances stay correct when the same
// position is reached at another depth.
type transpositionCache struct {
	entries *lru.Cache[uint64, cacheEntry]
	hits    int
}

func newTranspositionCache(size int) (*transpositionCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[uint64, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &transpositionCache{entries: entries}, nil
}

func (c *transpositionCache) probe(key uint64, depth, remaining int) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	e, ok := c.entries.Get(key)
	if !ok || e.remaining != remaining {
		return cacheEntry{}, false
	}
	c.hits++
	e.score = fromNodeScore(e.score, depth)
	return e, true
}

func (c *transpositionCache) store(key uint64, depth, remaining, score int, flag boundFlag) {
	if c == nil {
		return
	}
	c.entries.Add(key, cacheEntry{remaining: remaining, score: toNodeScore(score, depth), flag: flag})
}

// toNodeScore strips the root distance from a terminal score.
func toNodeScore(score, depth int) int {
	switch {
	case score > 0:
		return score + depth
	case score < 0:
		return score - depth
	default:
		return 0
	}
}

func fromNodeScore(score, depth int) int {
	switch {
	case score > 0:
		return score - depth
	case score < 0:
		return score + depth
	default:
		return 0
	}
}
