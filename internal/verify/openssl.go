package verify

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigstore/sigstore-go/pkg/fulcio/certificate"
	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/cellarman/cellarman/internal/logger"
)

// ClaimError reports a Fulcio certificate claim that does not match the
// expected release identity.
type ClaimError struct {
	Claim string
	Want  string
	Got   string
}

func (e *ClaimError) Error() string {
	return fmt.Sprintf("certificate %s mismatch: want %q, got %q", e.Claim, e.Want, e.Got)
}

// verifyOpenSSL checks the Fulcio certificate claims in-process, then
// hands the raw signature check to openssl. The public key is lifted
// from the certificate, so a signature that verifies was made by the
// workflow the claims describe.
func (v *Verifier) verifyOpenSSL(ctx context.Context, artifactPath, sigPath, certPath string) error {
	cert, err := loadCertificate(certPath)
	if err != nil {
		return fmt.Errorf("load signing certificate: %w", err)
	}

	summary, err := certificate.SummarizeCertificate(cert)
	if err != nil {
		return fmt.Errorf("summarize signing certificate: %w", err)
	}
	if err := checkClaims(&summary, v.exp); err != nil {
		return err
	}

	pubKeyPEM, err := cryptoutils.MarshalPublicKeyToPEM(cert.PublicKey)
	if err != nil {
		return fmt.Errorf("encode signer public key: %w", err)
	}

	rawSig, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	derSig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(rawSig)))
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	workDir, err := os.MkdirTemp("", "cellarman-verify-")
	if err != nil {
		return fmt.Errorf("create verification workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	pubKeyPath := filepath.Join(workDir, "signer.pem")
	if err := os.WriteFile(pubKeyPath, pubKeyPEM, 0600); err != nil {
		return fmt.Errorf("write signer public key: %w", err)
	}
	derSigPath := filepath.Join(workDir, "signature.der")
	if err := os.WriteFile(derSigPath, derSig, 0600); err != nil {
		return fmt.Errorf("write decoded signature: %w", err)
	}

	logger.Debugw("verifying signature with openssl", "artifact", artifactPath)
	args := []string{"dgst", "-sha256", "-verify", pubKeyPath, "-signature", derSigPath, artifactPath}
	if err := v.run(ctx, v.binPath, args...); err != nil {
		return fmt.Errorf("openssl verification failed: %w", err)
	}
	return nil
}

// loadCertificate reads a signing certificate published next to a
// release artifact, either as raw PEM or as a base64-wrapped PEM blob.
func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}

	pemData := data
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode certificate: %w", err)
		}
		pemData = decoded
	}

	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in certificate %s", path)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	return cert, nil
}

// checkClaims asserts that the certificate was issued to the expected
// repository, tag, and workflow identity. The repository comparison is
// case-insensitive to match how GitHub resolves owner names.
func checkClaims(summary *certificate.Summary, exp *Expectation) error {
	if summary.Issuer != exp.Issuer {
		return &ClaimError{Claim: "OIDC issuer", Want: exp.Issuer, Got: summary.Issuer}
	}
	if !strings.EqualFold(summary.SourceRepositoryURI, exp.Repository) {
		return &ClaimError{Claim: "source repository", Want: exp.Repository, Got: summary.SourceRepositoryURI}
	}
	if summary.SourceRepositoryRef != exp.Ref {
		return &ClaimError{Claim: "source ref", Want: exp.Ref, Got: summary.SourceRepositoryRef}
	}
	if !exp.matchIdentity(summary.SubjectAlternativeName) {
		return &ClaimError{Claim: "signer identity", Want: exp.IdentityPattern(), Got: summary.SubjectAlternativeName}
	}
	return nil
}
