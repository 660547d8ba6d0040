package backend

import (
	"io/fs"
	"strconv"

	lru "github.com/hashicorp/golang-lru"

	"git.sr.ht/~whereswaldon/labelscope/timeseries"
)

const defaultCacheSize = 16

// loaded is a parsed CSV file.
type loaded struct {
	points  []timeseries.DataPoint
	dropped int
}

// datasetCache remembers parsed files by path, size and modification time,
// so reopening an unchanged file or a burst of change notifications does not
// parse it again.
type datasetCache struct {
	*lru.Cache
}

func newDatasetCache(size int) (*datasetCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &datasetCache{c}, nil
}

func cacheKey(path string, info fs.FileInfo) string {
	return path + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10) + "|" + strconv.FormatInt(info.Size(), 10)
}

func (c *datasetCache) lookup(key string) (loaded, bool) {
	v, ok := c.Get(key)
	if !ok {
		return loaded{}, false
	}
	return v.(loaded), true
}

func (c *datasetCache) store(key string, l loaded) {
	c.Add(key, l)
}
