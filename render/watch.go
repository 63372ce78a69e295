package render

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchTexture reloads the texture at path whenever it changes and hands it
// to apply. The directory is watched rather than the file so that editors
// which replace the file on save are still seen. Watching stops when ctx is
// done.
func WatchTexture(ctx context.Context, path string, size int, log zerolog.Logger, apply func(*Texture)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				tex, err := LoadTexture(path, size)
				if err != nil {
					log.Warn().Err(err).Str("path", path).Msg("texture reload failed")
					continue
				}
				log.Info().Str("path", path).Msg("texture reloaded")
				apply(tex)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("texture watcher")
			}
		}
	}()
	return nil
}
