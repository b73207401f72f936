// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DotEnvFile is the name of the credentials file looked up by LoadDotEnv.
const DotEnvFile = ".env"

// LegacyEnvPrefix is accepted in front of credential variables so existing
// .env files written for the web front end keep working.
const LegacyEnvPrefix = "VITE_"

// LoadDotEnv loads .env files from dirs into the process environment.
// Variables that are already set are left alone, and missing files are
// skipped. It returns the files that were loaded.
func LoadDotEnv(dirs ...string) ([]string, error) {
	var loaded []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, DotEnvFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, errors.Wrapf(err, "load %s", path)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// DefaultDotEnvDirs returns the working directory and the config directory.
func DefaultDotEnvDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if dir, err := ConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	return dirs
}

// LookupCredential returns the value of envVar, falling back to the same
// name with the VITE_ prefix.
func LookupCredential(envVar string) (string, bool) {
	for _, name := range []string{envVar, LegacyEnvPrefix + envVar} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, true
		}
	}
	return "", false
}
