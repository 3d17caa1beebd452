package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"consultai/utils/log"
)

// Loader holds the current configuration and reloads it when the file is
// written.
type Loader struct {
	path string
	// The fsnotify watcher
	watcher *fsnotify.Watcher

	mu sync.RWMutex
	// version is bumped on every successful reload
	version     int64
	current     Config
	subscribers []func(Config)
	done        chan struct{}
}

func NewConfigLoader(path string) (*Loader, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cl := &Loader{
		path:    path,
		watcher: watcher,
		current: cfg,
		done:    make(chan struct{}),
	}

	// watch the directory so editors that replace the file are seen too
	if err := cl.watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go cl.handleEvents()

	return cl, nil
}

func (cl *Loader) Close() error {
	err := cl.watcher.Close()
	<-cl.done
	return err
}

func (cl *Loader) Config() Config {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.current
}

func (cl *Loader) Version() int64 {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.version
}

// Subscribe registers fn to run after every reload.
func (cl *Loader) Subscribe(fn func(Config)) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.subscribers = append(cl.subscribers, fn)
}

func (cl *Loader) handleEvents() {
	defer close(cl.done)
	target := filepath.Clean(cl.path)
	for {
		select {
		case event, ok := <-cl.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cl.reload()
			}
		case err, ok := <-cl.watcher.Errors:
			if !ok {
				return
			}
			log.Warn(context.Background(), "config watcher error", zap.Error(err))
		}
	}
}

func (cl *Loader) reload() {
	cfg, err := Load(cl.path)
	if err != nil {
		// keep the previous config
		log.Warn(context.Background(), "config reload failed", zap.String("path", cl.path), zap.Error(err))
		return
	}

	cl.mu.Lock()
	cl.current = cfg
	cl.version++
	subs := append([]func(Config){}, cl.subscribers...)
	cl.mu.Unlock()

	log.Info(context.Background(), "config reloaded", zap.String("path", cl.path))
	for _, fn := range subs {
		fn(cfg)
	}
}
