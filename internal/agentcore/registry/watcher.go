package registry

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// rescanDebounce is the coalescing window for filesystem-change events on
// a single watched directory, per §4.2.
const rescanDebounce = 100 * time.Millisecond

// pollInterval is how often each watched directory's mtime snapshot is
// checked for changes. The core touches no filesystem APIs beyond what
// the teacher's own polling FileWatcher uses, keeping the watcher
// portable across platforms without a native notification dependency.
const pollInterval = 250 * time.Millisecond

// watcher polls a set of directories for changes and invokes onChange,
// through a per-directory debounce timer, at most once per coalescing
// window. Individual file events are treated as hints; rescan is the
// authoritative consistency mechanism.
type watcher struct {
	logger    *zap.Logger
	onChange  func(dir string)
	dirs      []string
	debounced map[string]*debouncer

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func newWatcher(logger *zap.Logger, onChange func(dir string), dirs []string) *watcher {
	w := &watcher{
		logger:    logger,
		onChange:  onChange,
		dirs:      dirs,
		debounced: make(map[string]*debouncer, len(dirs)),
		stopCh:    make(chan struct{}),
	}
	for _, d := range dirs {
		dir := d
		var inFlight atomic.Bool
		w.debounced[dir] = newDebouncer(rescanDebounce, func() {
			if !inFlight.CompareAndSwap(false, true) {
				return
			}
			defer inFlight.Store(false)
			w.onChange(dir)
		})
	}
	return w
}

func (w *watcher) start() {
	w.wg.Add(1)
	go w.poll()
}

func (w *watcher) poll() {
	defer w.wg.Done()
	snapshots := make(map[string]dirSnapshot, len(w.dirs))
	for _, d := range w.dirs {
		snapshots[d] = snapshotDir(d)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			for _, d := range w.dirs {
				next := snapshotDir(d)
				if !next.equal(snapshots[d]) {
					snapshots[d] = next
					w.debounced[d].schedule()
				}
			}
		}
	}
}

func (w *watcher) stop() {
	w.once.Do(func() {
		close(w.stopCh)
		for _, d := range w.debounced {
			d.stop()
		}
	})
	w.wg.Wait()
}

// dirSnapshot is a cheap fingerprint of a directory's entries (all of
// them, not only agent files): entry count plus the most recent
// modification time observed. It is
// sufficient to detect add/remove/modify without re-reading file bodies
// on every poll tick.
type dirSnapshot struct {
	exists  bool
	count   int
	latest  time.Time
}

func snapshotDir(dir string) dirSnapshot {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dirSnapshot{}
	}
	snap := dirSnapshot{exists: true, count: len(entries)}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(snap.latest) {
			snap.latest = info.ModTime()
		}
	}
	return snap
}

func (s dirSnapshot) equal(other dirSnapshot) bool {
	return s.exists == other.exists && s.count == other.count && s.latest.Equal(other.latest)
}

// debouncer coalesces repeated schedule() calls into a single flush after
// the configured delay has elapsed with no further calls.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
