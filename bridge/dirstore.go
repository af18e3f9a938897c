package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/moyoez/shareintent-go/tool"
)

const dirStoreExt = ".json"

// DirStore is an app-group directory: one JSON file per key. A share
// extension running as another process drops files here.
type DirStore struct {
	dir string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewDirStore creates dir if needed and returns a store rooted there.
func NewDirStore(dir string) (*DirStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("app group directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create app group directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the root directory.
func (d *DirStore) Dir() string {
	return d.dir
}

func (d *DirStore) path(key string) string {
	return filepath.Join(d.dir, filepath.Base(key)+dirStoreExt)
}

func (d *DirStore) Load(key string) ([]byte, bool) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Save writes through a temp file so readers never see a partial payload.
func (d *DirStore) Save(key string, data []byte) error {
	tmp, err := os.CreateTemp(d.dir, ".staging-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to store payload: %w", err)
	}
	return nil
}

func (d *DirStore) Delete(key string) error {
	err := os.Remove(d.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// NotifyKeys watches the directory and calls fn with the key of every
// payload file created or rewritten. Only one watch runs per store.
func (d *DirStore) NotifyKeys(fn func(key string)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.watcher != nil {
		return fmt.Errorf("app group directory is already watched")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(d.dir); err != nil {
		_ = watcher.Close()
		return err
	}
	d.watcher = watcher
	d.done = make(chan struct{})

	d.wg.Add(1)
	go d.watchLoop(watcher, d.done, fn)
	return nil
}

func (d *DirStore) watchLoop(watcher *fsnotify.Watcher, done <-chan struct{}, fn func(key string)) {
	defer d.wg.Done()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, dirStoreExt) {
				continue
			}
			fn(strings.TrimSuffix(name, dirStoreExt))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			tool.DefaultLogger.Warnf("[appgroup] watch error: %v", err)
		}
	}
}

// Close stops the watcher, if any.
func (d *DirStore) Close() error {
	d.mu.Lock()
	watcher := d.watcher
	done := d.done
	d.watcher = nil
	d.mu.Unlock()
	if watcher == nil {
		return nil
	}
	close(done)
	err := watcher.Close()
	d.wg.Wait()
	return err
}
