package boxconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxRenameRetry       = 10
	renameRetryBaseDelay = 10 * time.Millisecond
)

// Load reads and parses the configuration file at path into a Document,
// rejecting a file that cannot be read or parsed or that defines no
// layouts. Semantic validation (spec.md §7 kind 1) happens afterwards, in
// Document.ToAppState.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boxconfig: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("boxconfig: parse %s: %w", path, err)
	}
	if len(doc.App.Layouts) == 0 {
		return nil, fmt.Errorf("boxconfig: %s defines no layouts", path)
	}
	return &doc, nil
}

// Save serializes doc and atomically rewrites path (temp file + fsync +
// rename, with retry on Windows for transient file locks).
func Save(path string, doc *Document) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("boxconfig: marshal: %w", err)
	}
	return atomicWrite(path, raw)
}

func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("boxconfig: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".boxmux.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("boxconfig: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("boxconfig: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("boxconfig: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("boxconfig: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("boxconfig: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("boxconfig: rename: %w", err)
	}
	return nil
}

func renameFileWithRetry(sourcePath, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}

// ErrNotFound is returned by FindMuxBox/FindLayout when no node matches.
var ErrNotFound = errors.New("boxconfig: identifier not found")

// FindLayout returns a pointer to the layout with the given id, for
// in-place mutation of the parsed document tree.
func FindLayout(doc *Document, id string) (*Layout, error) {
	for i := range doc.App.Layouts {
		if doc.App.Layouts[i].ID == id {
			return &doc.App.Layouts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: layout %q", ErrNotFound, id)
}

// FindMuxBox walks every layout's children recursively and returns a
// pointer to the muxbox with the given id, per spec.md §4.9's "keyed
// lookup: app.layouts[*].children[*] by identifier, recursively".
func FindMuxBox(doc *Document, id string) (*MuxBox, error) {
	for i := range doc.App.Layouts {
		if box := findMuxBoxIn(doc.App.Layouts[i].Children, id); box != nil {
			return box, nil
		}
	}
	return nil, fmt.Errorf("%w: muxbox %q", ErrNotFound, id)
}

func findMuxBoxIn(boxes []MuxBox, id string) *MuxBox {
	for i := range boxes {
		if boxes[i].ID == id {
			return &boxes[i]
		}
		if box := findMuxBoxIn(boxes[i].Children, id); box != nil {
			return box
		}
	}
	return nil
}
