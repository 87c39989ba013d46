package driveindex

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the index whenever the index file is rewritten (the rescan
// subprocess replaces it atomically, which surfaces as create+rename events
// in its directory). Blocks until ctx is canceled.
func (ix *Index) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: atomic replaces swap the inode, so a watch on
	// the file itself would go stale after the first rewrite.
	if err := watcher.Add(filepath.Dir(ix.path)); err != nil {
		return err
	}

	target := filepath.Base(ix.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				ix.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ix.log.Warn().Err(err).Msg("drive index watcher error")
		}
	}
}
