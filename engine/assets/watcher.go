package assets

import (
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/vkframe/engine/core"
)

// ShaderWatcher fires EVENT_CODE_SHADERS_CHANGED when one of the watched
// shader files is written. Directories are watched rather than the files
// themselves since compilers usually replace the file.
type ShaderWatcher struct {
	fsnotify *fsnotify.Watcher
	files    map[string]struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewShaderWatcher(paths ...string) (*ShaderWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}
	sw := &ShaderWatcher{
		fsnotify: fsWatch,
		files:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fsWatch.Close()
			return nil, err
		}
		sw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatch.Add(dir); err != nil {
			fsWatch.Close()
			return nil, errors.Wrapf(err, "watching %s", dir)
		}
		core.LogDebug("watching %s for shader changes", dir)
	}

	sw.wg.Add(1)
	go sw.start()
	return sw, nil
}

func (sw *ShaderWatcher) start() {
	defer sw.wg.Done()
	for {
		select {
		case e, ok := <-sw.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			abs, err := filepath.Abs(e.Name)
			if err != nil {
				continue
			}
			if _, watched := sw.files[abs]; !watched {
				continue
			}
			core.LogDebug("shader %s changed", e.Name)
			core.EventFire(core.EventContext{
				Type: core.EVENT_CODE_SHADERS_CHANGED,
				Data: &core.AssetEvent{Path: e.Name},
			})

		case err, ok := <-sw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("shader watcher: %v", err)

		case <-sw.done:
			return
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (sw *ShaderWatcher) Close() error {
	var err error
	sw.once.Do(func() {
		close(sw.done)
		err = sw.fsnotify.Close()
		sw.wg.Wait()
	})
	return err
}
