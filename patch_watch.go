// patch_watch.go - Hot reload of patch files via fsnotify

package isynth

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// WatchPatch watches a patch file and delivers re-validated patches on
// every save. Invalid edits go to errs and the last good patch stays in
// effect. Closing done stops the watcher.
func WatchPatch(path string, patches chan<- *Patch, errs chan<- error, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	go func() {
	loop:
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					break loop
				}
				// editors save via rename as often as via write
				if event.Op&(fsnotify.Write|fsnotify.Rename) > 0 {
					p, err := LoadPatch(path)
					if err != nil {
						errs <- err
						continue loop
					}
					patches <- p
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					break loop
				}
				errs <- err
			case <-done:
				break loop
			}
		}
		// ignore close error
		watcher.Close()
	}()
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}
	return nil
}
