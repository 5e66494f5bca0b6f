package account

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemoryRepository implements Repository using in-memory storage.
// A single mutex gives every method the same atomicity as the Mongo
// single-document operations.
type InMemoryRepository struct {
	mu      sync.RWMutex
	users   map[primitive.ObjectID]*User
	byEmail map[string]primitive.ObjectID
}

// NewInMemoryRepository creates a new in-memory account repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:   make(map[primitive.ObjectID]*User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

// clone hands out copies so callers can not mutate stored state
func clone(u *User) *User {
	out := *u
	if u.VerifiedAt != nil {
		t := *u.VerifiedAt
		out.VerifiedAt = &t
	}
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		out.PasswordChangedAt = &t
	}
	if u.Secrets != nil {
		out.Secrets = make(map[SecretPurpose]Secret, len(u.Secrets))
		for k, v := range u.Secrets {
			out.Secrets[k] = v
		}
	}
	return &out
}

func (r *InMemoryRepository) Insert(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = NormalizeEmail(user.Email)
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = clone(user)
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(u), nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(r.users[id]), nil
}

func (r *InMemoryRepository) FindBySecretHash(ctx context.Context, purpose SecretPurpose, hash string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if s, ok := u.PendingSecret(purpose); ok && s.Hash == hash {
			return clone(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryRepository) SetSecret(ctx context.Context, id primitive.ObjectID, purpose SecretPurpose, secret Secret) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if u.Secrets == nil {
		u.Secrets = make(map[SecretPurpose]Secret)
	}
	u.Secrets[purpose] = secret
	u.UpdatedAt = secret.IssuedAt
	return nil
}

func (r *InMemoryRepository) matches(u *User, p RedeemParams) bool {
	if !p.Lookup.UserID.IsZero() && u.ID != p.Lookup.UserID {
		return false
	}
	if p.Lookup.Email != "" && u.Email != NormalizeEmail(p.Lookup.Email) {
		return false
	}
	s, ok := u.PendingSecret(p.Purpose)
	if !ok {
		return false
	}
	return s.Hash == p.Hash && s.Kind == p.Kind && s.ExpiresAt.After(p.Now)
}

func (r *InMemoryRepository) RedeemSecret(ctx context.Context, p RedeemParams) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var target *User
	for _, u := range r.users {
		if r.matches(u, p) {
			target = u
			break
		}
	}
	if target == nil {
		return nil, ErrNoMatch
	}

	delete(target.Secrets, p.Purpose)
	if len(target.Secrets) == 0 {
		target.Secrets = nil
	}
	now := p.Now
	if p.MarkVerified {
		target.Verified = true
		target.VerifiedAt = &now
	}
	if p.PasswordHash != "" {
		target.PasswordHash = p.PasswordHash
		target.PasswordChangedAt = &now
	}
	target.UpdatedAt = now
	return clone(target), nil
}

func (r *InMemoryRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.UpdatedAt = changedAt
	delete(u.Secrets, PurposePasswordReset)
	return nil
}

func (r *InMemoryRepository) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID, picture string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if googleID != "" {
		u.GoogleID = googleID
	}
	if picture != "" {
		u.Picture = picture
	}
	u.UpdatedAt = now
	return nil
}

func (r *InMemoryRepository) SetRole(ctx context.Context, id primitive.ObjectID, role Role, now time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = now
	return clone(u), nil
}

func (r *InMemoryRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool, now time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Blocked = blocked
	u.UpdatedAt = now
	return clone(u), nil
}
