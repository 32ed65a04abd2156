package definition

import (
	"fmt"
	"maps"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hugo-lorenzo-mato/taskflow/internal/actions"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

// Registrar receives the workflows loaded from a definitions file.
type Registrar interface {
	RegisterWorkflow(wf *core.Workflow)
	Unregister(name string) bool
}

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher keeps a Registrar in sync with a definitions file.
//
// The parent directory is watched rather than the file so that editors that
// save by rename are picked up. A file that fails to load leaves the
// previously registered workflows untouched.
type Watcher struct {
	path     string
	registry *actions.Registry
	target   Registrar
	logger   *logging.Logger
	debounce time.Duration

	mu       sync.Mutex
	loaded   map[string]bool
	contexts map[string]map[string]any
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	stop     chan struct{}
	done     chan struct{}

	// OnReload, if set, is called after every reload attempt.
	OnReload func(names []string, err error)
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, registry *actions.Registry, target Registrar, logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		registry: registry,
		target:   target,
		logger:   logger.With("definitions", path),
		debounce: DefaultDebounce,
		loaded:   make(map[string]bool),
	}
}

// SetDebounce overrides the debounce delay. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start loads the file once and then watches it for changes. The initial
// load error is returned; later errors are logged.
func (w *Watcher) Start() error {
	if _, err := w.Reload(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(fw)
	return nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("definitions watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if _, err := w.Reload(); err != nil {
			w.logger.Error("reloading definitions failed", "error", err)
		}
	})
}

// Reload loads the file and registers its workflows. Workflows that
// disappeared from the file since the last successful load are unregistered.
func (w *Watcher) Reload() ([]string, error) {
	names, err := w.reload()
	if w.OnReload != nil {
		w.OnReload(names, err)
	}
	return names, err
}

func (w *Watcher) reload() ([]string, error) {
	doc, err := Load(w.path)
	if err != nil {
		return nil, err
	}
	workflows, err := doc.Build(w.registry)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]bool, len(workflows))
	contexts := make(map[string]map[string]any, len(doc.Workflows))
	for _, def := range doc.Workflows {
		contexts[def.Name] = def.Context
	}
	names := make([]string, 0, len(workflows))
	for _, wf := range workflows {
		w.target.RegisterWorkflow(wf)
		current[wf.Name] = true
		names = append(names, wf.Name)
	}
	for name := range w.loaded {
		if !current[name] {
			w.target.Unregister(name)
			w.logger.Info("workflow removed", "workflow", name)
		}
	}
	w.loaded = current
	w.contexts = contexts
	w.logger.Info("definitions loaded", "workflows", len(names))
	return names, nil
}

// Context returns a copy of the initial run context declared for a
// workflow in the last successfully loaded file.
func (w *Watcher) Context(name string) map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.contexts[name])
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fw, stop, done := w.watcher, w.stop, w.done
	w.watcher = nil
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if fw == nil {
		return nil
	}
	close(stop)
	err := fw.Close()
	<-done
	return err
}
