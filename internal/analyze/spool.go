// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyze

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// =============================================================================
// UPLOAD SPOOL
// =============================================================================

// Spool owns the temporary storage for in-flight uploads. Every upload is
// written to its own spool file which is released through a single
// exit-path-independent mechanism (the deferred Release in the batch
// coordinator), never through scattered cleanup calls.
type Spool struct {
	dir string
}

// NewSpool creates the spool directory if needed.
func NewSpool(dir string) (*Spool, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "studypal-uploads")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("spool: create dir: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Save writes upload bytes into a fresh spool file.
func (s *Spool) Save(data []byte) (*SpoolFile, error) {
	path := filepath.Join(s.dir, uuid.NewString())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("spool: write: %w", err)
	}
	return &SpoolFile{path: path}, nil
}

// SpoolFile is one scoped temporary file.
type SpoolFile struct {
	path     string
	released bool
}

// Path returns the on-disk location.
func (f *SpoolFile) Path() string {
	return f.path
}

// Bytes reads the spooled content back.
func (f *SpoolFile) Bytes() ([]byte, error) {
	return os.ReadFile(f.path)
}

// Release removes the backing file. It is safe to call more than once.
func (f *SpoolFile) Release() error {
	if f.released {
		return nil
	}
	f.released = true
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
