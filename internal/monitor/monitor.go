// Package monitor keeps a status file describing the running session up to date.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cameramfd/extension/internal/logging"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// Status is one sample of the session state.
type Status struct {
	Time            time.Time `json:"time"`
	OpenInstruments int       `json:"openInstruments"`
	CameraSets      int       `json:"cameraSets"`
	Storage         string    `json:"storage"`
	PendingWrites   int       `json:"pendingWrites"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	// Sample returns the current session state.
	Sample     func() Status
	StatusPath string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	last      Status
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Last returns the most recent sample.
func (s *Service) Last() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetProgramStatus samples the session and renders it for the status file.
func (s *Service) GetProgramStatus() (output []string, status Status) {
	status = s.deps.Sample()
	if status.Time.IsZero() {
		status.Time = time.Now()
	}

	str, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		str = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(str))
	return output, status
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "path", s.deps.StatusPath)

		var statusFile *os.File
		if s.deps.StatusPath != "" {
			var err error
			statusFile, err = os.Create(s.deps.StatusPath)
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				lines, status := s.GetProgramStatus()

				s.mu.Lock()
				changed := status.OpenInstruments != s.last.OpenInstruments ||
					status.CameraSets != s.last.CameraSets
				s.last = status
				s.mu.Unlock()

				if changed {
					logger.Debug("Session status",
						"openInstruments", status.OpenInstruments,
						"cameraSets", status.CameraSets,
						"pendingWrites", status.PendingWrites)
				}

				if statusFile != nil {
					_ = statusFile.Truncate(0)
					_, _ = statusFile.Seek(0, 0)
					for _, line := range lines {
						_, _ = statusFile.WriteString(line + "\n")
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
