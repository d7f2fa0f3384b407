package main

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rotkonetworks/bspwm/internal/util"
)

const debounceWindow = 250 * time.Millisecond

// watchFiles forwards a debounced notification for every changed file in targets.
// targets maps a cleaned absolute path to the value sent on out. Watching stops
// when ctx is done or the watcher closes.
func watchFiles(ctx context.Context, logger *util.Logger, watcher *fsnotify.Watcher, targets map[string]string, out chan<- string) error {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	pending := map[string]bool{}
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			what, tracked := targets[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[what] = true
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			whats := make([]string, 0, len(pending))
			for what := range pending {
				whats = append(whats, what)
			}
			sort.Strings(whats)
			pending = map[string]bool{}
			for _, what := range whats {
				select {
				case out <- what:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("file watcher error: %v", err)
		}
	}
}

// addWatch watches path and its directory, so that editors replacing the file are
// noticed too.
func addWatch(logger *util.Logger, watcher *fsnotify.Watcher, path string) (string, error) {
	full, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	full = filepath.Clean(full)
	if err := watcher.Add(filepath.Dir(full)); err != nil {
		return "", err
	}
	if err := watcher.Add(full); err != nil {
		logger.Debugf("unable to watch %s directly: %v", full, err)
	}
	return full, nil
}
