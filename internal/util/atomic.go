// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultDirPerm is used for parent directories created by AtomicWriteFile.
// State and config live under the user's home, so they stay private.
const DefaultDirPerm os.FileMode = 0700

// RELIABILITY: Atomic write with fsync prevents data loss on crash
//
// AtomicWriteFile writes data to path so that readers observe either the old
// contents or the complete new contents, never a partial file:
//  1. Write to a temporary file in the target directory
//  2. fsync the temporary file
//  3. Apply perm and rename it over the target
//
// Missing parent directories are created with DefaultDirPerm.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, DefaultDirPerm)
}

// AtomicWriteFileWithDir is AtomicWriteFile with an explicit permission for
// created parent directories.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}

	// Same directory as the target so the rename never crosses filesystems.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(absPath)+".tmp-")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	// Windows refuses to rename an open file.
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		return errors.Wrapf(err, "replace %s", absPath)
	}

	committed = true
	return nil
}
