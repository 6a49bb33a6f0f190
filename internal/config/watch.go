package config

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "github.com/altmanhellen/homework-bot/pkg/logx"
)

// Watch reloads the config file whenever it changes and invokes onChange with
// the freshly loaded config. It blocks until ctx is done.
//
// Editors replace files instead of writing in place, so the watch is on the
// parent directory and events are debounced. Reload errors keep the previous
// config; content-identical rewrites are not re-published.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	var lastHash uint64
	if cfg, err := Load(path); err == nil {
		lastHash = hashConfig(cfg)
	}

	var debounce *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watch error", logx.Err(err))

		case <-fire:
			cfg, err := Load(path)
			if err != nil {
				log.Error("config reload failed, keeping previous", logx.Err(err))
				continue
			}
			if err := cfg.Validate(); err != nil {
				log.Error("config reload rejected", logx.Err(err))
				continue
			}
			h := hashConfig(cfg)
			if h == lastHash {
				continue
			}
			lastHash = h
			log.Info("config reloaded", logx.String("path", path))
			onChange(cfg)
		}
	}
}

func hashConfig(cfg *Config) uint64 {
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
