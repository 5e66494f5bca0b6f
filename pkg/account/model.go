package account

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Origin records how an account authenticates
type Origin string

const (
	OriginPassword Origin = "password"
	OriginGoogle   Origin = "google"
)

// Role is the authorization role of an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// SecretPurpose names the slot a secret is stored in. Each purpose holds at
// most one live secret.
type SecretPurpose string

const (
	PurposeEmailVerify   SecretPurpose = "email_verify"
	PurposePasswordReset SecretPurpose = "password_reset"
)

// SecretKind tells how a secret is presented back: a link token or a code
type SecretKind string

const (
	KindLink SecretKind = "link"
	KindCode SecretKind = "code"
)

// Secret is a pending verification or reset secret. Only the SHA-256 hex
// digest of the plaintext is kept.
type Secret struct {
	Kind      SecretKind `bson:"kind" json:"kind"`
	Hash      string     `bson:"hash" json:"-"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"`
	IssuedAt  time.Time  `bson:"issued_at" json:"issued_at"`
}

// Expired reports whether the secret is no longer valid at now
func (s Secret) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// User is an account document in the users collection
type User struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email   string             `bson:"email" json:"email"`
	Name    string             `bson:"name" json:"name"`
	Age     string             `bson:"age,omitempty" json:"age,omitempty"`
	Country string             `bson:"country,omitempty" json:"country,omitempty"`
	Picture string             `bson:"picture,omitempty" json:"picture,omitempty"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	GoogleID     string `bson:"google_id,omitempty" json:"-"`
	Origin       Origin `bson:"origin" json:"origin"`

	Verified          bool       `bson:"verified" json:"verified"`
	VerifiedAt        *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	Active            bool       `bson:"active" json:"active"`
	Blocked           bool       `bson:"blocked" json:"blocked"`
	Role              Role       `bson:"role" json:"role"`
	PasswordChangedAt *time.Time `bson:"password_changed_at,omitempty" json:"-"`

	Secrets map[SecretPurpose]Secret `bson:"secrets,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PendingSecret returns the live or stale secret stored for purpose
func (u *User) PendingSecret(purpose SecretPurpose) (Secret, bool) {
	if u == nil || u.Secrets == nil {
		return Secret{}, false
	}
	s, ok := u.Secrets[purpose]
	return s, ok
}

// IsOAuth reports whether the account signs in through Google
func (u *User) IsOAuth() bool {
	return u.Origin == OriginGoogle
}

// NormalizeEmail trims and lowercases an email address. Every lookup and
// write goes through it so the unique index sees one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
