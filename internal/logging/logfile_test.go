package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionStart = time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

func TestSessionLogPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("logs", "camera_mfd.20260212_213836.log"),
		SessionLogPath("logs", "camera_mfd", sessionStart))
	assert.Equal(t,
		filepath.Join("/var", "log", "mfd", "camera_mfd.20260212_213836.log"),
		SessionLogPath(filepath.Join("/var", "log", "mfd"), "camera_mfd", sessionStart))
}

func TestOpenSessionLog_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	f, path, err := OpenSessionLog(dir, "camera_mfd", sessionStart)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, SessionLogPath(dir, "camera_mfd", sessionStart), path)
	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestOpenSessionLog_KeepsPreviousAsOld(t *testing.T) {
	dir := t.TempDir()
	path := SessionLogPath(dir, "camera_mfd", sessionStart)
	require.NoError(t, os.WriteFile(path, []byte("earlier session\n"), 0o644))

	f, _, err := OpenSessionLog(dir, "camera_mfd", sessionStart)
	require.NoError(t, err)
	defer f.Close()

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "earlier session\n", string(old))

	fresh, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestOpenSessionLog_DirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := OpenSessionLog(blocker, "camera_mfd", sessionStart)
	assert.Error(t, err)
}
