package verify

import (
	"context"
	"fmt"

	"github.com/cellarman/cellarman/internal/logger"
)

// verifyCosign delegates the entire check to cosign verify-blob, which
// validates the certificate chain, the identity claims, and the
// signature in one pass.
func (v *Verifier) verifyCosign(ctx context.Context, artifactPath, sigPath, certPath string) error {
	args := []string{
		"verify-blob",
		"--certificate", certPath,
		"--signature", sigPath,
		"--certificate-oidc-issuer", v.exp.Issuer,
		"--certificate-identity-regexp", v.exp.IdentityPattern(),
		artifactPath,
	}

	logger.Debugw("verifying signature with cosign", "artifact", artifactPath)
	if err := v.run(ctx, v.binPath, args...); err != nil {
		return fmt.Errorf("cosign verification failed: %w", err)
	}
	return nil
}
