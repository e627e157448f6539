package commands

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/xlog"
)

// Editors usually emit a burst of writes for one save.
const watchDebounce = 200 * time.Millisecond

// watchFile calls onChange each time dir/name is written or recreated,
// until ctx is done. The directory is watched instead of the file, so
// an atomic rename by the editor is still seen.
func watchFile(ctx context.Context, dir, name string, logger xlog.XLogger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "new watcher")
	}
	defer func() {
		_ = watcher.Close()
	}()
	if err = watcher.Add(dir); err != nil {
		return infra.WrapErrorStackWithMessage(err, "watch "+dir)
	}
	logger.Info("[xrbt] watching scenario", zap.String("dir", dir), zap.String("file", name))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
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
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.ErrorStack(infra.WrapErrorStack(err), "[xrbt] watcher error")
		}
	}
}
