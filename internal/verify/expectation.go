package verify

import (
	"fmt"
	"regexp"
)

// OIDCIssuer is the token issuer for workflows signing on GitHub Actions.
const OIDCIssuer = "https://token.actions.githubusercontent.com"

// Expectation pins the identity a release signature must carry. The
// values derive from the tap configuration and the version being
// installed, so a certificate minted for any other repository, workflow,
// or tag fails verification.
type Expectation struct {
	Issuer     string
	Repository string
	Ref        string

	identity *regexp.Regexp
}

// NewExpectation builds the signing identity expected for one release.
// The owner segment matches case-insensitively because GitHub treats
// account names that way; every other segment is literal.
func NewExpectation(owner, repo, workflow, version string) *Expectation {
	pattern := fmt.Sprintf(`^https://github\.com/(?i:%s)/%s/%s@refs/tags/v%s$`,
		regexp.QuoteMeta(owner),
		regexp.QuoteMeta(repo),
		regexp.QuoteMeta(workflow),
		regexp.QuoteMeta(version),
	)

	return &Expectation{
		Issuer:     OIDCIssuer,
		Repository: fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		Ref:        "refs/tags/v" + version,
		identity:   regexp.MustCompile(pattern),
	}
}

// IdentityPattern returns the regular expression the certificate's
// signer identity must match.
func (e *Expectation) IdentityPattern() string {
	return e.identity.String()
}

func (e *Expectation) matchIdentity(identity string) bool {
	return e.identity.MatchString(identity)
}
