package daemon

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// InterruptibleSleep sleeps up to d, waking early on any filesystem event in
// watchDir. The loop passes the signals directory, so a new signal file cuts
// the sleep short; the stop-signal file lives in the state directory, which
// is not watched, and is seen at the first check after the sleep ends. Any
// fsnotify setup failure (including a missing watchDir) degrades to a plain
// timed sleep rather than blocking the daemon.
func InterruptibleSleep(watchDir string, d time.Duration) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		time.Sleep(d)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(watchDir); err != nil {
		time.Sleep(d)
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case _, ok := <-watcher.Events:
		if !ok {
			time.Sleep(d)
		}
	case <-watcher.Errors:
	}
}
