// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	v1 "github.com/cameramfd/extension/internal/storage/memory/export/v1"
)

// exportName is camera_snapshots_<timestamp>.json, plus .gz when compressed.
func (b *Backend) exportName() string {
	name := "camera_snapshots_" + b.now().Format("20060102_150405") + ".json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return name
}

// exportJSON writes every held snapshot into OutputDir. The caller holds the
// lock.
func (b *Backend) exportJSON() (err error) {
	doc := v1.Build(b.version, b.all(), b.now())

	if err := b.fs.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(b.cfg.OutputDir, b.exportName())

	f, err := b.fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing export: %w", cerr)
		}
	}()

	var w io.Writer = f
	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("finishing gzip: %w", cerr)
			}
		}()
		w = gz
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	b.lastExportPath = path
	return nil
}
