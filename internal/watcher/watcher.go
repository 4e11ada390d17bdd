// Package watcher reports changes to a repository's refs. Bursts of
// filesystem events (a commit touches the index, a ref, the reflog and HEAD)
// collapse into a single callback after a quiet period.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/gitglance/internal/log"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches HEAD, packed-refs and refs/heads/** under a git directory.
type Watcher struct {
	gitDir   string
	debounce time.Duration
	onChange func()

	fw *fsnotify.Watcher

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	done   chan struct{}
}

// New starts watching gitDir. onChange runs on its own goroutine once events
// stop arriving for debounce.
func New(gitDir string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	info, err := os.Stat(gitDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watcher: git dir is not a directory: " + gitDir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		gitDir:   gitDir,
		debounce: debounce,
		onChange: onChange,
		fw:       fw,
		done:     make(chan struct{}),
	}

	// HEAD and packed-refs are replaced via rename, so watch their directory.
	if err := fw.Add(gitDir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := w.addTree(filepath.Join(gitDir, "refs", "heads")); err != nil {
		log.Warn(log.CatWatch, "Could not watch branch refs", "error", err)
	}

	log.Debug(log.CatWatch, "Watching repository", "git_dir", gitDir, "debounce", debounce)
	go w.observe()
	return w, nil
}

// Close stops watching. A pending callback is cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fw.Add(path); err != nil {
				log.Warn(log.CatWatch, "Watch add failed", "path", path, "error", err)
			}
		}
		return nil
	})
}

func (w *Watcher) observe() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && w.underHeads(ev.Name) {
					_ = w.addTree(ev.Name)
				}
			}
			if w.relevant(ev.Name) {
				w.schedule()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatch, "Watcher error", "error", err)
		}
	}
}

func (w *Watcher) underHeads(path string) bool {
	rel, err := filepath.Rel(filepath.Join(w.gitDir, "refs", "heads"), path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// relevant reports whether path is a ref file whose change can alter the
// commit log. Lock files are written before the rename that matters.
func (w *Watcher) relevant(path string) bool {
	if strings.HasSuffix(path, ".lock") {
		return false
	}
	rel, err := filepath.Rel(w.gitDir, path)
	if err != nil {
		return false
	}
	switch rel {
	case "HEAD", "packed-refs":
		return true
	}
	return w.underHeads(path)
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed || w.timer != t {
			w.mu.Unlock()
			return
		}
		w.timer = nil
		w.mu.Unlock()

		log.Debug(log.CatWatch, "Repository refs changed")
		if w.onChange != nil {
			w.onChange()
		}
	})
	w.timer = t
}
