package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionLogPath names the log file of a session started at start.
func SessionLogPath(logsDir, name string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, start.Format("20060102_150405")))
}

// OpenSessionLog creates logsDir when missing and opens the session log for
// appending. A file left at the same path by an earlier session started in the
// same second is kept as <path>.old.
func OpenSessionLog(logsDir, name string, start time.Time) (*os.File, string, error) {
	path := SessionLogPath(logsDir, name, start)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, path, fmt.Errorf("creating logs dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".old"); err != nil {
			return nil, path, fmt.Errorf("rotating %s: %w", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, path, fmt.Errorf("opening session log: %w", err)
	}
	return f, path, nil
}
