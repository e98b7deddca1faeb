package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var numberedFileRegex = regexp.MustCompile(`^app-\d{4}-\d{2}-\d{2}_(\d{2})\.log$`)

// RotatingLogger manages daily log files with size-based splitting and day-based retention
type RotatingLogger struct {
	logDir      string
	currentFile *os.File
	currentDay  string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
	now         func() time.Time
}

// NewRotatingLogger creates a rotating logger with a 100MB size limit
func NewRotatingLogger(logDir string, retentionDays int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionDays, 100*1024*1024)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger with a custom size limit.
// A maxFileSize of 0 disables size-based rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionDays int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionDays) * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
		now:         time.Now,
	}
}

// getDayKey returns the day key in YYYY-MM-DD format
func getDayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// doRotate opens the file for targetDay (caller must hold the lock)
func (rl *RotatingLogger) doRotate(targetDay string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file during rotation: %v\n", err)
		}
		rl.currentFile = nil
	}

	isSizeRotation := rl.currentDay == targetDay && rl.maxFileSize > 0 && rl.currentSize.Load() >= rl.maxFileSize
	fileName, fresh := rl.findOrCreateLogFile(targetDay, isSizeRotation)

	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentDay = targetDay

	if fresh {
		rl.currentSize.Store(0)
	} else if info, err := file.Stat(); err == nil {
		rl.currentSize.Store(info.Size())
	}

	return nil
}

// findOrCreateLogFile picks the file to append to for targetDay. The boolean
// reports whether a new numbered file was chosen.
func (rl *RotatingLogger) findOrCreateLogFile(targetDay string, isSizeRotation bool) (string, bool) {
	baseFileName := fmt.Sprintf("app-%s.log", targetDay)

	highestNum, lastName, lastSize := rl.findHighestNumberedFile(targetDay)

	if highestNum == 0 && !isSizeRotation {
		info, err := os.Stat(filepath.Join(rl.logDir, baseFileName))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return baseFileName, false
		}
	}

	if lastName != "" && !isSizeRotation && lastSize < rl.maxFileSize {
		return lastName, false
	}

	return fmt.Sprintf("app-%s_%02d.log", targetDay, highestNum+1), true
}

// findHighestNumberedFile returns the highest _NN suffix used for targetDay
func (rl *RotatingLogger) findHighestNumberedFile(targetDay string) (int, string, int64) {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, fmt.Sprintf("app-%s_??.log", targetDay)))

	highestNum := 0
	var lastName string
	var lastSize int64

	for _, match := range matches {
		m := numberedFileRegex.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num <= highestNum {
			continue
		}
		highestNum = num
		lastName = filepath.Base(match)
		lastSize = 0
		if info, err := os.Stat(match); err == nil {
			lastSize = info.Size()
		}
	}

	return highestNum, lastName, lastSize
}

// Write writes data to the current log file, rotating on day change or size limit
func (rl *RotatingLogger) Write(p []byte) (n int, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	today := getDayKey(rl.now())
	needsRotation := rl.currentFile == nil || rl.currentDay != today

	if rl.maxFileSize > 0 && !needsRotation {
		size := rl.currentSize.Load()
		if size > 0 && size+int64(len(p)) > rl.maxFileSize {
			needsRotation = true
			rl.currentSize.Store(rl.maxFileSize)
		}
	}

	if needsRotation {
		if err = rl.doRotate(today); err != nil {
			return 0, err
		}
	}

	n, err = rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes log files older than the retention period
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rl.now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// startCleanup runs retention cleanup once now and then daily until Close
func (rl *RotatingLogger) startCleanup() {
	go func() {
		defer close(rl.cleanupDone)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			// Console only, the file handler may be the one being cleaned
			if deleted, err := rl.cleanupOldLogs(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to cleanup old logs: %v\n", err)
			} else if deleted > 0 {
				fmt.Printf("Cleaned up %d old log files\n", deleted)
			}

			select {
			case <-rl.ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Close stops background cleanup and closes the current file
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	select {
	case <-rl.cleanupDone:
	case <-time.After(2 * time.Second):
		fmt.Fprintln(os.Stderr, "Warning: log cleanup goroutine did not shutdown gracefully")
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile != nil {
		err := rl.currentFile.Close()
		rl.currentFile = nil
		return err
	}
	return nil
}

// newLogger builds the console + rotating file logger. The returned RotatingLogger
// is nil when file logging could not be set up.
func newLogger(logDir string, consoleLevel, fileLevel slog.Level, retentionDays int, maxFileSize int64) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: consoleLevel})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory", "dir", logDir, "error", err)
		return logger, nil
	}

	rotating := NewRotatingLoggerWithSizeLimit(logDir, retentionDays, maxFileSize)

	rotating.mu.Lock()
	err := rotating.doRotate(getDayKey(rotating.now()))
	rotating.mu.Unlock()
	if err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger", "error", err)
		return logger, nil
	}

	rotating.startCleanup()

	// Console gets text format, file gets JSON format for parsing
	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: fileLevel})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotating
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
