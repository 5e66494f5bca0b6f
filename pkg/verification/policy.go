package verification

import (
	"time"

	"github.com/tendant/dental-idm/pkg/account"
)

// Policy holds the lifetime of each kind of secret
type Policy struct {
	EmailLinkTTL time.Duration
	EmailCodeTTL time.Duration
	ResetCodeTTL time.Duration
}

// DefaultPolicy returns one hour for verification links and ten minutes for codes
func DefaultPolicy() Policy {
	return Policy{
		EmailLinkTTL: time.Hour,
		EmailCodeTTL: 10 * time.Minute,
		ResetCodeTTL: 10 * time.Minute,
	}
}

// TTL returns the lifetime for a secret of kind issued for purpose.
// Password resets always use codes.
func (p Policy) TTL(purpose account.SecretPurpose, kind account.SecretKind) time.Duration {
	if purpose == account.PurposePasswordReset {
		return p.ResetCodeTTL
	}
	if kind == account.KindLink {
		return p.EmailLinkTTL
	}
	return p.EmailCodeTTL
}
