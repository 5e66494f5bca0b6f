package account

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lookup selects an account by id or by email. When both are empty the
// secret hash alone identifies the account (link verification).
type Lookup struct {
	UserID primitive.ObjectID
	Email  string
}

// IsZero reports whether neither id nor email is set
func (l Lookup) IsZero() bool {
	return l.UserID.IsZero() && l.Email == ""
}

// RedeemParams describes one conditional consume of a pending secret.
// The secret must match Hash and Kind and expire after Now. On match the
// secret is removed and the listed side effects are applied in the same
// write.
type RedeemParams struct {
	Lookup  Lookup
	Purpose SecretPurpose
	Kind    SecretKind
	Hash    string
	Now     time.Time

	// MarkVerified sets verified and verified_at
	MarkVerified bool
	// PasswordHash, when set, replaces the stored hash and stamps password_changed_at
	PasswordHash string
}

// Repository persists accounts. Implementations must make SetSecret and
// RedeemSecret single atomic writes.
type Repository interface {
	// Insert stores a new account. A duplicate email returns ErrEmailTaken
	// and leaves the existing document untouched.
	Insert(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindBySecretHash finds the account holding a pending secret with hash
	FindBySecretHash(ctx context.Context, purpose SecretPurpose, hash string) (*User, error)

	// SetSecret overwrites the pending secret of purpose unconditionally
	SetSecret(ctx context.Context, id primitive.ObjectID, purpose SecretPurpose, secret Secret) error

	// RedeemSecret consumes a matching secret and returns the updated
	// account, or ErrNoMatch when nothing matched.
	RedeemSecret(ctx context.Context, params RedeemParams) (*User, error)

	// UpdatePassword replaces the password hash and drops any pending reset secret
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, changedAt time.Time) error

	// LinkGoogle fills google_id and picture on an existing Google account
	LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID, picture string, now time.Time) error

	SetRole(ctx context.Context, id primitive.ObjectID, role Role, now time.Time) (*User, error)
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool, now time.Time) (*User, error)
}
