package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var sequencePattern = regexp.MustCompile(`^app-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingFile is an io.Writer that starts a new log file every ISO week and
// whenever the current file would exceed maxSize. Files older than the
// retention period are removed by a background sweep.
type RotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64 // 0 disables size rollover

	mu     sync.Mutex
	file   *os.File
	week   string
	size   int64
	closed bool

	now       func() time.Time
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRotatingFile creates the log directory and opens the file for the current week.
func NewRotatingFile(dir string, retentionWeeks int, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &RotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	rf.mu.Lock()
	err := rf.open(weekKey(rf.now()), false)
	rf.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go rf.sweep(24 * time.Hour)
	return rf, nil
}

// weekKey returns the ISO week in YYYY-Www format
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.closed {
		return 0, os.ErrClosed
	}

	week := weekKey(rf.now())
	switch {
	case rf.file == nil || week != rf.week:
		if err := rf.open(week, false); err != nil {
			return 0, err
		}
	case rf.maxSize > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize:
		if err := rf.open(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// open switches to the file for week (caller must hold mu). When full is set
// the current file has reached its limit and a new numbered file is started.
func (rf *RotatingFile) open(week string, full bool) error {
	name := rf.pick(week, full)
	path := filepath.Join(rf.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	if rf.file != nil {
		_ = rf.file.Close()
	}
	rf.file = f
	rf.week = week
	rf.size = fileSize(path)
	return nil
}

// pick returns the file name to write to for week: the base file, the last
// numbered file while it has room, or the next numbered file.
func (rf *RotatingFile) pick(week string, full bool) string {
	base := fmt.Sprintf("app-%s.log", week)
	seq, last := rf.lastSequence(week)

	if !full {
		current := base
		if seq > 0 {
			current = last
		}
		if rf.maxSize == 0 || fileSize(filepath.Join(rf.dir, current)) < rf.maxSize {
			return current
		}
	}

	return fmt.Sprintf("app-%s_%02d.log", week, seq+1)
}

func (rf *RotatingFile) lastSequence(week string) (int, string) {
	matches, _ := filepath.Glob(filepath.Join(rf.dir, fmt.Sprintf("app-%s_??.log", week)))

	highest, name := 0, ""
	for _, m := range matches {
		sub := sequencePattern.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		if n, _ := strconv.Atoi(sub[1]); n > highest {
			highest, name = n, filepath.Base(m)
		}
	}
	return highest, name
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Cleanup removes log files last modified before the retention period and
// returns how many were deleted.
func (rf *RotatingFile) Cleanup() (int, error) {
	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rf.now().Add(-rf.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rf.dir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (rf *RotatingFile) sweep(interval time.Duration) {
	defer close(rf.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rf.stop:
			return
		case <-ticker.C:
			// Console only, the file handler may be the one being cleaned.
			if n, err := rf.Cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			} else if n > 0 {
				fmt.Printf("Cleaned up %d old log files\n", n)
			}
		}
	}
}

// Close stops the background sweep and closes the current file.
func (rf *RotatingFile) Close() error {
	var err error
	rf.closeOnce.Do(func() {
		close(rf.stop)
		<-rf.done

		rf.mu.Lock()
		defer rf.mu.Unlock()
		rf.closed = true
		if rf.file != nil {
			err = rf.file.Close()
			rf.file = nil
		}
	})
	return err
}
