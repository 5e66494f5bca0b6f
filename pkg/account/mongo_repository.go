package account

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tendant/dental-idm/pkg/mongodb"
)

// MongoRepository implements Repository on the users collection
type MongoRepository struct {
	users *mongo.Collection
}

// NewMongoRepository creates a repository backed by store
func NewMongoRepository(store *mongodb.Store) *MongoRepository {
	return &MongoRepository{users: store.Collection(mongodb.UsersCollection)}
}

func secretField(purpose SecretPurpose) string {
	return "secrets." + string(purpose)
}

func lookupFilter(l Lookup) bson.M {
	filter := bson.M{}
	if !l.UserID.IsZero() {
		filter["_id"] = l.UserID
	}
	if l.Email != "" {
		filter["email"] = NormalizeEmail(l.Email)
	}
	return filter
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *MongoRepository) Insert(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = NormalizeEmail(user.Email)

	_, err := r.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *MongoRepository) FindBySecretHash(ctx context.Context, purpose SecretPurpose, hash string) (*User, error) {
	return r.findOne(ctx, bson.M{secretField(purpose) + ".hash": hash})
}

func (r *MongoRepository) SetSecret(ctx context.Context, id primitive.ObjectID, purpose SecretPurpose, secret Secret) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			secretField(purpose): secret,
			"updated_at":         secret.IssuedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("set %s secret: %w", purpose, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) RedeemSecret(ctx context.Context, p RedeemParams) (*User, error) {
	field := secretField(p.Purpose)

	filter := lookupFilter(p.Lookup)
	filter[field+".hash"] = p.Hash
	filter[field+".kind"] = p.Kind
	filter[field+".expires_at"] = bson.M{"$gt": p.Now}

	set := bson.M{"updated_at": p.Now}
	if p.MarkVerified {
		set["verified"] = true
		set["verified_at"] = p.Now
	}
	if p.PasswordHash != "" {
		set["password_hash"] = p.PasswordHash
		set["password_changed_at"] = p.Now
	}

	update := bson.M{
		"$set":   set,
		"$unset": bson.M{field: ""},
	}

	var user User
	err := r.users.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("redeem %s secret: %w", p.Purpose, err)
	}
	return &user, nil
}

func (r *MongoRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, changedAt time.Time) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"password_hash":       passwordHash,
				"password_changed_at": changedAt,
				"updated_at":          changedAt,
			},
			"$unset": bson.M{secretField(PurposePasswordReset): ""},
		},
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID, picture string, now time.Time) error {
	set := bson.M{"updated_at": now}
	if googleID != "" {
		set["google_id"] = googleID
	}
	if picture != "" {
		set["picture"] = picture
	}
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("link google account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) SetRole(ctx context.Context, id primitive.ObjectID, role Role, now time.Time) (*User, error) {
	return r.updateAndReturn(ctx, id, bson.M{"role": role, "updated_at": now})
}

func (r *MongoRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool, now time.Time) (*User, error) {
	return r.updateAndReturn(ctx, id, bson.M{"blocked": blocked, "updated_at": now})
}

func (r *MongoRepository) updateAndReturn(ctx context.Context, id primitive.ObjectID, set bson.M) (*User, error) {
	var user User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}
