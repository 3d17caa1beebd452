package chunk_cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"consultai/store"
)

const keyPrefix = "chunk/"

var ErrChunkNotFound = errors.New("chunk not found")

// Cache keeps processed chunks in badger under chunk/<report>/<id>.
type Cache struct {
	db *badger.DB
}

func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open chunk cache %s", dir)
	}
	return &Cache{db: db}, nil
}

// OpenInMemory is used by tests and one-shot tools.
func OpenInMemory() (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory chunk cache")
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func Key(report string, id int) string {
	return fmt.Sprintf("%s%s/%d", keyPrefix, report, id)
}

func reportPrefix(report string) []byte {
	return []byte(keyPrefix + report + "/")
}

func (c *Cache) Put(row store.ChunkRow) error {
	val, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key(row.Report, row.ChunkID)), val)
	})
}

// PutReport replaces every cached chunk of report with rows.
func (c *Cache) PutReport(report string, rows []store.ChunkRow) error {
	if err := c.DeleteReport(report); err != nil {
		return err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, row := range rows {
		val, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if err := wb.Set([]byte(Key(report, row.ChunkID)), val); err != nil {
			return errors.Wrapf(err, "cache chunk %s/%d", report, row.ChunkID)
		}
	}
	return wb.Flush()
}

func (c *Cache) Get(report string, id int) (store.ChunkRow, error) {
	var row store.ChunkRow
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(report, id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return row, errors.Wrapf(ErrChunkNotFound, "%s/%d", report, id)
	}
	return row, err
}

// List returns the chunks of report ordered by chunk id.
func (c *Cache) List(report string) ([]store.ChunkRow, error) {
	rows, err := c.scan(reportPrefix(report), func(store.ChunkRow) bool { return true })
	if err != nil {
		return nil, err
	}
	sortRows(rows)
	return rows, nil
}

// Reports lists the distinct report names in the cache.
func (c *Cache) Reports() ([]string, error) {
	seen := make(map[string]struct{})
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), keyPrefix)
			if i := strings.LastIndexByte(key, '/'); i > 0 {
				seen[key[:i]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reports := make([]string, 0, len(seen))
	for r := range seen {
		reports = append(reports, r)
	}
	sort.Strings(reports)
	return reports, nil
}

// Search returns chunks whose text contains keyword, case-insensitively,
// paged by offset and limit.
func (c *Cache) Search(keyword string, offset, limit int) ([]store.ChunkRow, error) {
	needle := strings.ToLower(keyword)
	rows, err := c.scan([]byte(keyPrefix), func(row store.ChunkRow) bool {
		return strings.Contains(strings.ToLower(row.Text), needle)
	})
	if err != nil {
		return nil, err
	}
	sortRows(rows)

	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (c *Cache) DeleteReport(report string) error {
	return c.db.DropPrefix(reportPrefix(report))
}

func (c *Cache) scan(prefix []byte, keep func(store.ChunkRow) bool) ([]store.ChunkRow, error) {
	var rows []store.ChunkRow
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var row store.ChunkRow
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return err
			}
			if keep(row) {
				rows = append(rows, row)
			}
		}
		return nil
	})
	return rows, err
}

func sortRows(rows []store.ChunkRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Report != rows[j].Report {
			return rows[i].Report < rows[j].Report
		}
		return rows[i].ChunkID < rows[j].ChunkID
	})
}
