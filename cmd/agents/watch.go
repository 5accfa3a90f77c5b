package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
)

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

// watchDocuments calls onChange for every document under roots that is
// written or created, once per burst of events. It blocks until ctx is done.
func watchDocuments(ctx context.Context, roots []string, debounceMs int, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, root := range roots {
		if err := addWatchTree(watcher, root); err != nil {
			return err
		}
	}

	events := make(chan FileEvent)
	debouncedEvents := make(chan FileEvent)
	go debounceFileEvents(ctx, events, debouncedEvents, time.Duration(debounceMs)*time.Millisecond)

	opts := cfg.DiscoverOptions()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchTree(watcher, event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if ok, err := opts.Matches(event.Name); err != nil || !ok {
				continue
			}
			select {
			case events <- FileEvent{Path: event.Name, Op: event.Op, Time: time.Now()}:
			case <-ctx.Done():
				return nil
			}
		case event := <-debouncedEvents:
			logger.G(ctx).WithFields(map[string]interface{}{
				"file":      event.Path,
				"operation": event.Op.String(),
				"timestamp": event.Time,
			}).Debug("document change detected")
			onChange(event.Path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			presenter.Error(err, "File watcher error")
			logger.G(ctx).WithError(err).Error("error watching files")
		case <-ctx.Done():
			return nil
		}
	}
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "failed to watch %s", root)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// debounceFileEvents forwards the last event per path once no new event for
// that path arrived within delay.
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	pending := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-input:
			if !ok {
				for _, timer := range pending {
					timer.Stop()
				}
				return
			}
			if timer, exists := pending[event.Path]; exists {
				timer.Stop()
			}

			eventCopy := event
			pending[event.Path] = time.AfterFunc(delay, func() {
				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
		case <-ctx.Done():
			for _, timer := range pending {
				timer.Stop()
			}
			return
		}
	}
}
