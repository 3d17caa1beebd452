package table_cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sync"
)

type DataReviseFunc func(data any) (any, error)

type TableCacheOp struct {
	mu      sync.RWMutex
	idxData map[string]any
	data    any
	config  *TablePullConfig
	version int64
	hash    string
}

func NewTableCacheOp(config *TablePullConfig) *TableCacheOp {
	return &TableCacheOp{
		idxData: make(map[string]any),
		config:  config,
	}
}

// SetData publishes rawData as a new version unless it hashes the same as
// the current one.
func (i *TableCacheOp) SetData(rawData any) error {
	newHash := genKey(rawData)

	i.mu.Lock()
	defer i.mu.Unlock()
	if newHash == i.hash {
		return nil
	}

	data := rawData
	if i.config.ReviseFunc != nil {
		rd, err := i.config.ReviseFunc(rawData)
		if err != nil {
			return err
		}
		data = rd
	}

	i.data = data
	i.version++
	i.hash = newHash
	if i.config.IDFunc != nil {
		i.idxData = i.config.IDFunc(rawData)
	}
	return nil
}

func (i *TableCacheOp) GetModelByID(id string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.idxData[id]
}

func (i *TableCacheOp) GetData() (any, int64) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.data, i.version
}

func (i *TableCacheOp) CheckDataUpdated(version int64) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.version != version
}

func genKey(data any) string {
	ds, _ := json.Marshal(data)
	sum := md5.Sum(ds)
	return string(sum[:])
}

func toString(v any) string {
	return fmt.Sprint(v)
}
