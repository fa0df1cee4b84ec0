package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgramStatus(t *testing.T) {
	s := NewService(Dependencies{
		Sample: func() Status {
			return Status{OpenInstruments: 2, CameraSets: 3, Storage: "memory"}
		},
	})

	lines, status := s.GetProgramStatus()
	require.Len(t, lines, 1)
	assert.False(t, status.Time.IsZero())

	var decoded Status
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, 2, decoded.OpenInstruments)
	assert.Equal(t, 3, decoded.CameraSets)
	assert.Equal(t, "memory", decoded.Storage)
}

func TestStartStop_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	var calls atomic.Int32

	s := NewService(Dependencies{
		Sample: func() Status {
			calls.Add(1)
			return Status{OpenInstruments: 1, CameraSets: 1, Storage: "sqlite", PendingWrites: 4}
		},
		StatusPath: path,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start()) // second start is a no-op
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Equal(t, 4, s.Last().PendingWrites)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Status
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "sqlite", decoded.Storage)

	s.Stop() // stopping twice is safe
}
