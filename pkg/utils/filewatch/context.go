package filewatch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Target is a file or a directory to be watched.
type Target struct {
	Path string

	// Match filters base names of changed entries when Path is a directory.
	//
	// nil matches all.
	Match func(name string) bool
}

// File is a Target watching path.
func File(path string) Target {
	return Target{Path: path}
}

// Dir is a Target watching entries in dir which match.
func Dir(dir string, match func(name string) bool) Target {
	return Target{Path: dir, Match: match}
}

// UntilModifyContext returns a context that is canceled
// when one of targets is modified (= written, created, removed, or renamed).
//
// Mode changes are ignored.
// context.Cause of the returned context tells which file is modified.
//
// If error is not nil, both of the the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targets ...Target) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	match := func(event fsnotify.Event) bool {
		if event.Op == fsnotify.Chmod {
			return false
		}
		for _, t := range targets {
			if filepath.Clean(event.Name) == filepath.Clean(t.Path) {
				return true
			}
			if filepath.Dir(event.Name) == filepath.Clean(t.Path) {
				return t.Match == nil || t.Match(filepath.Base(event.Name))
			}
		}
		return false
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if match(event) {
					cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("stop watching files: %w", err))
			}
		}
	}()

	for _, t := range targets {
		if err = w.Add(t.Path); err != nil {
			cancel(err)
			return nil, nil, err
		}
	}
	return cctx, func() { cancel(nil) }, nil
}
