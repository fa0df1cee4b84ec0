package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameramfd/extension/internal/config"
	"github.com/cameramfd/extension/internal/dispatcher"
	"github.com/cameramfd/extension/internal/handlers"
	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/internal/storage/memory"
	sqlitestorage "github.com/cameramfd/extension/internal/storage/sqlite"
	"github.com/cameramfd/extension/pkg/core"
)

func TestZerologLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, zerologLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, zerologLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, zerologLevel(""))
	assert.Equal(t, zerolog.InfoLevel, zerologLevel("loud"))
}

func TestCreateStorageBackend(t *testing.T) {
	b, err := createStorageBackend(config.StorageConfig{Type: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "cams.db")},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	_, err = createStorageBackend(config.StorageConfig{Type: "websocket"}, nil)
	assert.Error(t, err)
}

func TestServe(t *testing.T) {
	logManager := logging.NewSlogManager()
	logManager.Setup(&bytes.Buffer{}, "error", nil)
	Logger = logManager.Logger()

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()), nil)
	require.NoError(t, err)
	svc := handlers.NewService(handlers.Dependencies{
		LogManager:       logManager,
		ExtensionVersion: CurrentExtensionVersion,
		BuildDate:        BuildDate,
	})
	svc.Register(d)

	prev := eventDispatcher
	eventDispatcher = d
	t.Cleanup(func() { eventDispatcher = prev })

	in := strings.Join([]string{
		":VERSION:",
		"",
		":VESSEL:NEW:|GL-01|DeltaGlider",
		":MFD:OPEN:|GL-01|0",
		":MFD:UPDATE:|GL-01|0",
		":CAM:COUNT:|GL-01|0",
		":NOPE:",
		":QUIT:",
		":CAM:COUNT:|GL-01|0",
	}, "\n")

	var out bytes.Buffer
	serve(strings.NewReader(in), &out)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, `["ok", ["`+CurrentExtensionVersion+`","`+BuildDate+`"]]`, lines[0])
	assert.Equal(t, `["ok", "ok"]`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `["ok", "`))
	assert.Contains(t, lines[3], `"title":"Camera MFD"`)
	assert.Equal(t, `["ok", 1]`, lines[4])
	assert.Equal(t, `["error", ":NOPE:", "no handler registered"]`, lines[5])
}

func seededBackend(t *testing.T) storage.Backend {
	t.Helper()
	b := memory.New(config.MemoryConfig{}, "test")
	require.NoError(t, b.Init())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for slot := 0; slot < 2; slot++ {
		require.NoError(t, b.SaveSnapshot(&core.Snapshot{
			Owner:    "GL-01",
			Slot:     slot,
			Scenario: "  CCAM 0\n  CLBL Nose\n\n  CURCAM 0\n",
			Cameras:  []core.CameraSummary{{ID: 0, Label: "Nose", FOV: 40}},
			SavedAt:  at,
		}))
	}
	return b
}

func TestRunCommand_Export(t *testing.T) {
	b := seededBackend(t)

	var out bytes.Buffer
	require.NoError(t, runCommand(b, []string{"export", "GL-01", "1"}, &out))
	assert.Equal(t, "  CCAM 0\n  CLBL Nose\n\n  CURCAM 0\n", out.String())

	err := runCommand(b, []string{"export", "GL-01", "7"}, &out)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = runCommand(b, []string{"export", "GL-01", "x"}, &out)
	assert.Error(t, err)
}

func TestRunCommand_List(t *testing.T) {
	b := seededBackend(t)

	var out bytes.Buffer
	require.NoError(t, runCommand(b, []string{"list", "GL-01"}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SLOT"))
	assert.Contains(t, lines[2], "2026-03-01 12:00:00")
}

func TestRunCommand_Usage(t *testing.T) {
	b := seededBackend(t)
	var out bytes.Buffer
	assert.ErrorIs(t, runCommand(b, nil, &out), errUsage)
	assert.ErrorIs(t, runCommand(b, []string{"export", "GL-01"}, &out), errUsage)
	assert.ErrorIs(t, runCommand(b, []string{"purge"}, &out), errUsage)
}

func TestOpenReadStore_Memory(t *testing.T) {
	_, err := openReadStore(config.StorageConfig{Type: "memory"}, nil)
	assert.Error(t, err)
}
