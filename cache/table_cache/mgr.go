package table_cache

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RussellLuo/timingwheel"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"consultai/utils/log"
)

var (
	ErrEmptyTableName        = errors.New("table_cache: table name required")
	ErrEmptyModelGen         = errors.New("table_cache: ModelGen required")
	ErrModelGenUnexpectedVar = errors.New("table_cache: ModelGen must return a pointer to a slice")
	ErrClosed                = errors.New("table_cache: manager closed")
)

type TablePullConfig struct {
	TableName string
	Condition map[string]any
	// ModelGen returns a fresh pointer to a slice of models to scan into.
	ModelGen       func() any
	UpdateInterval time.Duration
	Selects        []string
	Order          string
	// ReviseFunc reshapes the pulled rows before they are published.
	ReviseFunc DataReviseFunc
	// IDFunc indexes the pulled rows for GetModelByID.
	IDFunc func(data any) map[string]any
}

type TableCacheMgr struct {
	db *gorm.DB
	tw *timingwheel.TimingWheel

	mu     sync.Mutex
	ops    map[string]*TableCacheOp
	timers []*timingwheel.Timer
	closed bool
}

func NewTableCacheMgr(db *gorm.DB) *TableCacheMgr {
	tw := timingwheel.NewTimingWheel(wheelTick, 60)
	tw.Start()

	return &TableCacheMgr{
		db:  db,
		tw:  tw,
		ops: make(map[string]*TableCacheOp),
	}
}

// AcquireCacheOp returns the op for the table and condition, pulling the
// rows on first use and scheduling refreshes when UpdateInterval is set.
func (mgr *TableCacheMgr) AcquireCacheOp(config TablePullConfig) (*TableCacheOp, error) {
	if config.TableName == "" {
		return nil, ErrEmptyTableName
	}
	if config.ModelGen == nil {
		return nil, ErrEmptyModelGen
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.closed {
		return nil, ErrClosed
	}

	// check if the data is already in cache
	key := generateItemKey(config.TableName, config.Condition)
	if op, ok := mgr.ops[key]; ok {
		return op, nil
	}

	op := NewTableCacheOp(&config)
	if err := mgr.pullTableData(op); err != nil {
		return nil, err
	}
	mgr.ops[key] = op

	if config.UpdateInterval > 0 {
		// add random interval to avoid thundering herd
		interval := jitter(config.UpdateInterval)
		timer := mgr.tw.ScheduleFunc(refreshEvery(interval), func() {
			if err := mgr.pullTableData(op); err != nil {
				log.Warn(context.Background(), "refresh table cache", zap.String("key", key), zap.Error(err))
			}
		})
		mgr.timers = append(mgr.timers, timer)
	}

	return op, nil
}

// Refresh pulls every cached table now.
func (mgr *TableCacheMgr) Refresh() error {
	mgr.mu.Lock()
	ops := make([]*TableCacheOp, 0, len(mgr.ops))
	for _, op := range mgr.ops {
		ops = append(ops, op)
	}
	mgr.mu.Unlock()

	for _, op := range ops {
		if err := mgr.pullTableData(op); err != nil {
			return err
		}
	}
	return nil
}

func (mgr *TableCacheMgr) pullTableData(op *TableCacheOp) error {
	config := op.config
	models := config.ModelGen()
	if v := reflect.ValueOf(models); v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Slice {
		return ErrModelGenUnexpectedVar
	}

	// query all data
	selects := config.Selects
	if len(selects) == 0 {
		selects = []string{"*"}
	}
	q := mgr.db.Table(config.TableName).Select(selects)
	if len(config.Condition) > 0 {
		q = q.Where(config.Condition)
	}
	if config.Order != "" {
		q = q.Order(config.Order)
	}
	if err := q.Find(models).Error; err != nil {
		return err
	}

	return op.SetData(models)
}

func generateItemKey(tableName string, conditions map[string]any) string {
	// acquire all keys and sort them
	keys := make([]string, 0, len(conditions))
	for key := range conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// generate key
	var sb strings.Builder
	sb.WriteString(tableName + ":")
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(toString(conditions[k]))
		sb.WriteString("&")
	}

	// remove the last "&" or ":"
	return sb.String()[:sb.Len()-1]
}

func (mgr *TableCacheMgr) Close() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.closed {
		return
	}
	mgr.closed = true
	for _, t := range mgr.timers {
		t.Stop()
	}
	mgr.tw.Stop()
}
