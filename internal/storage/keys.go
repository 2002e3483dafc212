package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxKeyBytes keeps key file names below common filesystem limits once
// FileExt is appended.
const maxKeyBytes = 250

// NormalizeKey returns the NFC form of key and rejects keys that cannot be
// used as a single file name. NFC keeps "é" typed on macOS and Linux equal.
func NormalizeKey(key string) (string, error) {
	k := norm.NFC.String(key)
	switch {
	case k == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	case k == "." || k == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(k, "/\\\x00"):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	case len(k) > maxKeyBytes:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyBytes)
	}
	return k, nil
}

// FileName is the backing file name for an already normalized key.
func FileName(key string) string { return key + FileExt }

// KeyFromFileName inverts FileName. ok is false for files that are not keys.
func KeyFromFileName(name string) (string, bool) {
	if !strings.HasSuffix(name, FileExt) || len(name) == len(FileExt) {
		return "", false
	}
	return strings.TrimSuffix(name, FileExt), true
}

// LogicalKeyPath is used by engines that do not keep one file per key.
func LogicalKeyPath(location, key string) string {
	return filepath.Join(location, FileName(key))
}
