// Package jsonfile stores the whole context as one pretty-printed JSON file
// that is rewritten after every mutation.
package jsonfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

const filePermissions = 0o644

// Open loads the context stored at path. A missing file yields an empty
// context that is written out immediately.
func Open(path string, logger *zap.Logger) (*ost.Engine, error) {
	return FromFile(path, path, logger)
}

// FromFile loads the context stored at source and persists every change to
// destination. The destination is written once before returning.
func FromFile(source, destination string, logger *zap.Logger) (*ost.Engine, error) {
	if source == "" || destination == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	snapshot, found, err := Read(source)
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Info("context file missing, starting empty", zap.String("path", source))
	}

	engine, err := ost.NewEngine(ost.EngineConfig{
		Snapshot: snapshot,
		Persist: func(snapshot ost.Snapshot) error {
			return Write(destination, snapshot)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("jsonfile: load %s: %w", source, err)
	}
	if err := engine.Persist(); err != nil {
		return nil, err
	}
	logger.Info("context file opened", zap.String("source", source), zap.String("destination", destination))
	return engine, nil
}

// Read decodes the snapshot at path. found is false when the file does not
// exist, in which case the snapshot is empty.
func Read(path string) (snapshot ost.Snapshot, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ost.EmptySnapshot(), false, nil
	}
	if err != nil {
		return ost.Snapshot{}, false, fmt.Errorf("jsonfile: read %s: %w", path, err)
	}
	snapshot, err = ost.DecodeSnapshot(data)
	if err != nil {
		return ost.Snapshot{}, false, fmt.Errorf("jsonfile: %s: %w", path, err)
	}
	return snapshot, true, nil
}

// Write replaces the file at path with the encoded snapshot. The content goes
// to a temporary sibling first and is renamed over the target.
func Write(path string, snapshot ost.Snapshot) error {
	encoded, err := ost.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	directory := filepath.Dir(path)
	temp, err := os.CreateTemp(directory, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if _, err := temp.Write(encoded); err != nil {
		temp.Close()
		return fmt.Errorf("jsonfile: write %s: %w", tempPath, err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return fmt.Errorf("jsonfile: sync %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close %s: %w", tempPath, err)
	}
	if err := os.Chmod(tempPath, filePermissions); err != nil {
		return fmt.Errorf("jsonfile: chmod %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", path, err)
	}
	return nil
}
