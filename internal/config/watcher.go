package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aditya-nis/EyeTalk/internal/decoder"
)

const reloadDebounce = 100 * time.Millisecond

// Reload is a config file that parsed and validated after a change on disk.
type Reload struct {
	File    FileConfig
	Decoder decoder.Config
}

// Watcher reloads the config file when it changes. Invalid files are reported on Errors and
// the previous config stays in force.
type Watcher struct {
	path    string
	base    decoder.Config
	watcher *fsnotify.Watcher
	reloads chan Reload
	errs    chan error
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	timer   *time.Timer
	wg      sync.WaitGroup
}

// Watch starts watching the directory holding path. Thresholds absent from the file fall back
// to base.
func Watch(path string, base decoder.Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:    path,
		base:    base,
		watcher: fw,
		reloads: make(chan Reload, 1),
		errs:    make(chan error, 4),
		ctx:     ctx,
		cancel:  cancel,
	}
	w.wg.Add(1)
	go w.watchLoop()
	return w, nil
}

// Reloads delivers the latest valid config. Only the newest pending reload is kept.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

// Errors delivers parse, validation and watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(reloadDebounce, w.reload)
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		}
	}
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	file, err := LoadConfig(w.path)
	if err != nil {
		w.sendErr(err)
		return
	}
	cfg, err := file.Decoder.Apply(w.base)
	if err != nil {
		w.sendErr(fmt.Errorf("invalid config: %w", err))
		return
	}
	next := Reload{File: file, Decoder: cfg}
	for {
		select {
		case w.reloads <- next:
			return
		default:
		}
		select {
		case <-w.reloads:
		default:
		}
	}
}

func (w *Watcher) sendErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
