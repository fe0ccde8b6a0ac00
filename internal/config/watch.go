package config

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/agent"
)

// #region watch

// Watch reloads path on every write and calls onChange with the merged
// config. It blocks until ctx is done; run it in its own goroutine.
// A reload that fails to parse keeps the previous config.
func Watch(ctx context.Context, path string, onChange func(agent.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				log.Printf("[CONF] reload %s failed, keeping previous: %v", path, err)
				continue
			}
			log.Printf("[CONF] reloaded %s", path)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CONF] watcher error: %v", err)
		}
	}
}

// #endregion watch
