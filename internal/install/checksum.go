package install

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrChecksumMismatch reports a downloaded artifact whose SHA-256 does
// not match the checksum recorded at sync time.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// fileSHA256 calculates the hex SHA-256 checksum of a file
func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// verifyChecksum compares a file against the expected hex checksum,
// case-insensitively
func verifyChecksum(path, expected string) error {
	if expected == "" {
		return fmt.Errorf("no checksum recorded for %s", filepath.Base(path))
	}

	actual, err := fileSHA256(path)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w:\nactual:   %s\nexpected: %s", ErrChecksumMismatch, actual, expected)
	}

	return nil
}
