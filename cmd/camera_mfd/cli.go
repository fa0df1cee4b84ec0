package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cameramfd/extension/internal/config"
	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/internal/storage"
)

var errUsage = errors.New("usage: camera_mfd export <owner> <slot> | camera_mfd list <owner>")

// runCLI answers the offline subcommands against the configured store.
func runCLI(args []string, w io.Writer) error {
	if err := bootstrap(); err != nil {
		return err
	}
	logManager := logging.NewSlogManager()
	logManager.Setup(io.Discard, "error", nil)

	backend, err := openReadStore(config.GetStorageConfig(), logManager)
	if err != nil {
		return err
	}
	defer backend.Close()

	return runCommand(backend, args, w)
}

// openReadStore opens the store for reading. An in-memory sqlite session is
// read back from its last dump; the memory store keeps nothing between runs.
func openReadStore(cfg config.StorageConfig, logManager *logging.SlogManager) (storage.Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return nil, fmt.Errorf("storage type %q keeps nothing between sessions", cfg.Type)
	case "sqlite":
		if cfg.SQLite.Path == "" {
			cfg.SQLite.Path = cfg.SQLite.DumpPath
		}
		cfg.SQLite.DumpPath = ""
	}

	backend, err := createStorageBackend(cfg, logManager)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, err
	}
	return backend, nil
}

func runCommand(backend storage.Backend, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch strings.ToLower(args[0]) {
	case "export":
		if len(args) != 3 {
			return errUsage
		}
		slot, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("slot %q: %w", args[2], err)
		}
		snap, err := backend.LoadSnapshot(args[1], slot)
		if err != nil {
			return fmt.Errorf("export %s/%d: %w", args[1], slot, err)
		}
		_, err = io.WriteString(w, snap.Scenario)
		return err

	case "list":
		if len(args) != 2 {
			return errUsage
		}
		snaps, err := backend.ListSnapshots(args[1])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT\tCAMERAS\tCURRENT\tOWNED\tSAVED")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%t\t%s\n", s.Slot, len(s.Cameras), s.Current, s.Owned, s.SavedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	}
	return errUsage
}
