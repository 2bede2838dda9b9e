package install

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxBinaryBytes caps how far a single archive entry may expand.
const maxBinaryBytes = 512 << 20

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBinary extracts the named binary from a tar.gz archive into
// destPath. Entries are matched by base name, so the binary is found
// whether the archive nests it in a directory or not.
func (e *Extractor) ExtractBinary(archivePath, destPath, binaryName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return fmt.Errorf("binary %s not found in archive", binaryName)
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != binaryName {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return fmt.Errorf("create dest dir: %w", err)
		}

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}

		written, err := io.Copy(outFile, io.LimitReader(tarReader, maxBinaryBytes+1))
		if err != nil {
			outFile.Close()
			return fmt.Errorf("write file: %w", err)
		}
		if written > maxBinaryBytes {
			outFile.Close()
			os.Remove(destPath)
			return fmt.Errorf("binary %s exceeds %d byte limit", binaryName, int64(maxBinaryBytes))
		}

		return outFile.Close()
	}
}

// SetExecutable sets executable permissions on a file
func SetExecutable(path string) error {
	// 0755 (rwxr-xr-x), applied with chmod so the umask cannot clamp it
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
