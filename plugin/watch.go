package plugin

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/vine-io/vine/lib/logger"
)

// WatchDelay is how long Watch waits for changes to settle before a build.
var WatchDelay = 300 * time.Millisecond

var resourceExts = map[string]struct{}{
	".bpmn":  {},
	".bpmn2": {},
	".cmmn":  {},
	".dmn":   {},
	".drl":   {},
	".pmml":  {},
}

// Watch runs task once, then again whenever a resource below dirs changes,
// until ctx is done. Build failures are logged and do not stop the watch.
func Watch(ctx context.Context, p *Project, task string, dirs ...string) error {
	if _, err := p.Plan(task); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err = watchTree(watcher, dir); err != nil {
			return err
		}
	}

	build := func() {
		if err := p.Run(ctx, task); err != nil && ctx.Err() == nil {
			log.Errorf("build failed: %v", err)
		}
	}
	build()

	// pending fires once changes settled, nil while idle
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err = watchTree(watcher, event.Name); err != nil {
						log.Warnf("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if _, ok := resourceExts[filepath.Ext(event.Name)]; !ok {
				continue
			}
			log.Debugf("resource changed: %s", event)
			pending = time.After(WatchDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watch error: %v", err)
		case <-pending:
			pending = nil
			build()
		}
	}
}

func watchTree(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		log.Debugf("skip missing watch root %s", root)
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err = w.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		return nil
	})
}
