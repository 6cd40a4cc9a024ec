package docstore

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// Watch reloads the library whenever another process rewrites its manifest.
// onReload, when non-nil, is called after every reload attempt with its
// error. Calling Watch on an already watching library is a no-op.
func (lib *Library) Watch(onReload func(error)) error {
	lib.watchMu.Lock()
	defer lib.watchMu.Unlock()

	if lib.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	// The manifest is replaced by rename, so the directory is watched rather
	// than the file itself.
	if err := watcher.Add(lib.path); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", lib.path, err)
	}

	lib.watcher = watcher
	lib.stopChan = make(chan struct{})
	lib.onReload = onReload

	go lib.watchLoop(watcher, lib.stopChan)

	lib.logger.Info("watching library", zap.String("path", lib.path))
	return nil
}

// StopWatch stops a running watch. It is safe to call when not watching.
func (lib *Library) StopWatch() {
	lib.watchMu.Lock()
	defer lib.watchMu.Unlock()

	if lib.watcher == nil {
		return
	}
	close(lib.stopChan)
	lib.watcher.Close()
	lib.watcher = nil
	lib.stopChan = nil
}

func (lib *Library) watchLoop(watcher *fsnotify.Watcher, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != manifestFileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			err := lib.Reload()
			if err != nil {
				lib.logger.Warn("library reload failed",
					zap.String("path", lib.path),
					zap.Error(err))
			}
			lib.watchMu.Lock()
			callback := lib.onReload
			lib.watchMu.Unlock()
			if callback != nil {
				callback(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			lib.logger.Warn("library watch error", zap.Error(err))
		}
	}
}
