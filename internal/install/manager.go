package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cellarman/cellarman/internal/logger"
	"github.com/cellarman/cellarman/internal/platform"
	"github.com/cellarman/cellarman/internal/release"
	"github.com/cellarman/cellarman/internal/verify"
)

// Manager orchestrates artifact download, verification, and installation
type Manager struct {
	tool     string
	owner    string
	repo     string
	workflow string
	binDir   string

	platformInfo *platform.Info
	downloader   *Downloader
	extractor    *Extractor
}

// Config holds configuration for the install manager
type Config struct {
	// Tool is the binary name installed into BinDir
	Tool string
	// Owner and Repo identify the upstream GitHub repository
	Owner string
	Repo  string
	// Workflow is the repository-relative path of the release workflow
	// expected to have signed the artifacts
	Workflow string
	// BinDir is the directory the binary is installed into
	BinDir string
	// CacheDir is the root of the download cache
	CacheDir string
	// PlatformInfo contains OS and architecture information
	PlatformInfo *platform.Info
}

// NewManager creates a new install manager
func NewManager(config Config) (*Manager, error) {
	if config.Tool == "" {
		return nil, fmt.Errorf("Tool is required")
	}
	if config.BinDir == "" {
		return nil, fmt.Errorf("BinDir is required")
	}
	if config.CacheDir == "" {
		return nil, fmt.Errorf("CacheDir is required")
	}
	if config.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	return &Manager{
		tool:         config.Tool,
		owner:        config.Owner,
		repo:         config.Repo,
		workflow:     config.Workflow,
		binDir:       config.BinDir,
		platformInfo: config.PlatformInfo,
		downloader:   NewDownloader(config.CacheDir),
		extractor:    NewExtractor(),
	}, nil
}

// BinaryPath returns the filesystem path the tool is installed to
func (m *Manager) BinaryPath() string {
	return filepath.Join(m.binDir, m.tool)
}

// IsInstalled checks if the tool is already installed and executable
func (m *Manager) IsInstalled() (bool, error) {
	info, err := os.Stat(m.BinaryPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}
	if info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// SelectAsset picks the record's binary asset matching the host
// platform. When none matches, the returned error describes the
// source-build path if the record carries build data.
func (m *Manager) SelectAsset(record release.VersionRecord) (release.BinaryAsset, error) {
	osName, err := m.platformInfo.ArtifactOS()
	if err != nil {
		return release.BinaryAsset{}, m.noBinaryError(record)
	}
	archName, err := m.platformInfo.ArtifactArch()
	if err != nil {
		return release.BinaryAsset{}, m.noBinaryError(record)
	}

	for _, asset := range record.Binaries {
		if asset.OS == osName && asset.Arch == archName {
			return asset, nil
		}
	}

	return release.BinaryAsset{}, m.noBinaryError(record)
}

func (m *Manager) noBinaryError(record release.VersionRecord) error {
	return &NoBinaryError{
		Tool:      m.tool,
		Version:   record.Version,
		OS:        m.platformInfo.OS,
		Arch:      m.platformInfo.Arch,
		Build:     record.Build,
		CargoPath: cargoPath(),
	}
}

// cargoPath reports where cargo lives on PATH, empty when absent
func cargoPath() string {
	path, err := exec.LookPath("cargo")
	if err != nil {
		return ""
	}
	return path
}

// Install runs the full pipeline for one version record: download the
// host's artifact, verify its signature and checksum, extract the tool
// binary, and move it into the bin directory.
func (m *Manager) Install(ctx context.Context, record release.VersionRecord, opts Options) (*Result, error) {
	startTime := time.Now()

	asset, err := m.SelectAsset(record)
	if err != nil {
		return nil, err
	}

	archivePath, err := m.downloader.Fetch(ctx, m.tool, record.Version, asset.URL, opts.Force)
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}

	verified, err := m.verifySignature(ctx, record.Version, archivePath, asset.URL, opts)
	if err != nil {
		return nil, err
	}

	if err := verifyChecksum(archivePath, asset.Checksum); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.binDir, 0755); err != nil {
		return nil, fmt.Errorf("create bin dir: %w", err)
	}

	// Extract next to the destination so the final rename is atomic.
	stagingPath := filepath.Join(m.binDir, fmt.Sprintf(".%s-%s.partial", m.tool, uuid.New().String()))
	if err := m.extractor.ExtractBinary(archivePath, stagingPath, m.tool); err != nil {
		os.Remove(stagingPath)
		return nil, fmt.Errorf("extract binary: %w", err)
	}
	if err := SetExecutable(stagingPath); err != nil {
		os.Remove(stagingPath)
		return nil, err
	}
	if err := os.Rename(stagingPath, m.BinaryPath()); err != nil {
		os.Remove(stagingPath)
		return nil, fmt.Errorf("install binary: %w", err)
	}

	logger.Infow("installed",
		"tool", m.tool,
		"version", record.Version,
		"path", m.BinaryPath(),
		"verified", verified.String(),
	)

	return &Result{
		Version:  record.Version,
		Path:     m.BinaryPath(),
		Verified: verified,
		Duration: time.Since(startTime),
	}, nil
}

// verifySignature checks the artifact's keyless signature. A missing
// backend or missing signature assets downgrades to an unverified
// install with a warning; a verification that runs and fails is fatal.
func (m *Manager) verifySignature(ctx context.Context, version, archivePath, artifactURL string, opts Options) (VerificationMethod, error) {
	if opts.SkipVerify {
		logger.Warnw("signature verification disabled", "version", version)
		return VerificationNone, nil
	}

	verifier, err := verify.NewVerifier(verify.NewExpectation(m.owner, m.repo, m.workflow, version))
	if err != nil {
		if errors.Is(err, verify.ErrNoBackend) {
			logger.Warnw("no verification backend on PATH, installing unverified",
				"version", version,
			)
			return VerificationNone, nil
		}
		return VerificationNone, fmt.Errorf("select verification backend: %w", err)
	}

	sigPath, err := m.downloader.Fetch(ctx, m.tool, version, verify.SignatureURL(artifactURL), opts.Force)
	if err != nil {
		logger.Warnw("signature not published, installing unverified",
			"url", verify.SignatureURL(artifactURL),
			"error", err,
		)
		return VerificationNone, nil
	}
	certPath, err := m.downloader.Fetch(ctx, m.tool, version, verify.CertificateURL(artifactURL), opts.Force)
	if err != nil {
		logger.Warnw("signing certificate not published, installing unverified",
			"url", verify.CertificateURL(artifactURL),
			"error", err,
		)
		return VerificationNone, nil
	}

	if err := verifier.Verify(ctx, archivePath, sigPath, certPath); err != nil {
		return VerificationNone, err
	}

	if verifier.Backend() == verify.BackendCosign {
		return VerificationCosign, nil
	}
	return VerificationOpenSSL, nil
}
