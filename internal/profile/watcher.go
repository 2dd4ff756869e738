package profile

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates the profile cache when the YAML file changes on disk.
// The parent directory is watched rather than the file itself, because many
// editors save by writing a temp file and renaming over the original, which
// drops a watch on the file.
type Watcher struct {
	service *Service
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher bound to the service's profile path.
func NewWatcher(service *Service) *Watcher {
	return &Watcher{
		service: service,
		done:    make(chan struct{}),
	}
}

// Start begins watching. Call Stop to clean up.
func (pw *Watcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(pw.service.path)); err != nil {
		_ = w.Close()
		return err
	}
	pw.watcher = w

	go pw.loop()
	log.Printf("profile: watching %s for changes", pw.service.path)
	return nil
}

// Stop shuts down the watcher.
func (pw *Watcher) Stop() {
	if pw.watcher != nil {
		_ = pw.watcher.Close()
	}
	<-pw.done
}

func (pw *Watcher) loop() {
	defer close(pw.done)
	target := filepath.Clean(pw.service.path)
	for {
		select {
		case evt, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pw.service.Invalidate()
				log.Printf("profile: reloaded after change to %s", filepath.Base(evt.Name))
			}
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("profile: watcher error: %v", err)
		}
	}
}
