// Package verify checks keyless release signatures against the GitHub
// Actions identity that produced them.
//
// Two backends are supported. cosign handles the whole check with a
// single verify-blob invocation. When only openssl is available, the
// Fulcio certificate claims are compared in-process and openssl checks
// the raw signature. Whichever backend is selected, its verdict is
// final: a failed verification never falls back to the other backend.
package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cellarman/cellarman/internal/logger"
)

const (
	// BackendCosign verifies with the cosign CLI.
	BackendCosign = "cosign"
	// BackendOpenSSL verifies with in-process claim checks plus the
	// openssl CLI for the signature itself.
	BackendOpenSSL = "openssl"

	maxCommandError = 512
)

// ErrNoBackend reports that neither cosign nor openssl is on PATH.
// Callers may treat this as a degraded install rather than a failure.
var ErrNoBackend = errors.New("no signature verification backend found on PATH")

// SignatureURL returns the detached-signature URL for an artifact URL.
func SignatureURL(artifactURL string) string {
	return artifactURL + ".sig"
}

// CertificateURL returns the signing-certificate URL for an artifact URL.
func CertificateURL(artifactURL string) string {
	return artifactURL + ".cert"
}

// Verifier verifies release artifacts with the backend found at
// construction time.
type Verifier struct {
	backend string
	binPath string
	exp     *Expectation

	run func(ctx context.Context, bin string, args ...string) error
}

// NewVerifier probes PATH for a verification backend, preferring cosign
// over openssl, and binds the expected signing identity to it. Returns
// ErrNoBackend when no backend is installed.
func NewVerifier(exp *Expectation) (*Verifier, error) {
	for _, backend := range []string{BackendCosign, BackendOpenSSL} {
		binPath, err := exec.LookPath(backend)
		if err != nil {
			continue
		}
		logger.Debugw("selected signature verification backend",
			"backend", backend,
			"path", binPath,
		)
		return &Verifier{backend: backend, binPath: binPath, exp: exp, run: runCommand}, nil
	}
	return nil, ErrNoBackend
}

// Backend reports which backend this verifier runs.
func (v *Verifier) Backend() string {
	return v.backend
}

// Verify checks the artifact against its detached signature and signing
// certificate. Any error from the selected backend is fatal for the
// artifact; there is no fallback.
func (v *Verifier) Verify(ctx context.Context, artifactPath, sigPath, certPath string) error {
	switch v.backend {
	case BackendCosign:
		return v.verifyCosign(ctx, artifactPath, sigPath, certPath)
	case BackendOpenSSL:
		return v.verifyOpenSSL(ctx, artifactPath, sigPath, certPath)
	default:
		return fmt.Errorf("unknown verification backend %q", v.backend)
	}
}

func runCommand(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %s", bin, strings.Join(args, " "), trimCommandOutput(combined.String()))
	}
	return nil
}

func trimCommandOutput(out string) string {
	clean := strings.TrimSpace(out)
	if clean == "" {
		return "command failed"
	}
	if len(clean) > maxCommandError {
		return clean[:maxCommandError] + "..."
	}
	return clean
}
