package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

const profilesCollection = "profiles"

// MongoProfileRepository stores the 1:1 profile rows keyed by user id.
type MongoProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{coll: db.Collection(profilesCollection)}
}

// UpdatedAt is stored as unix nanoseconds: a reader after a save must see a
// timestamp no older than the save call, so the mapping cannot truncate.
type mongoProfile struct {
	ID        string `bson:"_id"`
	Username  string `bson:"username,omitempty"`
	FullName  string `bson:"full_name,omitempty"`
	Website   string `bson:"website,omitempty"`
	AvatarURL string `bson:"avatar_url,omitempty"`
	UpdatedAt int64  `bson:"updated_at"`
}

func toMongoProfile(p *domain.Profile) mongoProfile {
	return mongoProfile{
		ID:        p.UserID,
		Username:  p.Username,
		FullName:  p.FullName,
		Website:   p.Website,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt.UnixNano(),
	}
}

func (mp mongoProfile) toDomain() *domain.Profile {
	return &domain.Profile{
		UserID:    mp.ID,
		Username:  mp.Username,
		FullName:  mp.FullName,
		Website:   mp.Website,
		AvatarURL: mp.AvatarURL,
		UpdatedAt: nanosToTime(mp.UpdatedAt),
	}
}

func (r *MongoProfileRepository) FindByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var mp mongoProfile
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *MongoProfileRepository) Insert(ctx context.Context, profile *domain.Profile) error {
	if _, err := r.coll.InsertOne(ctx, toMongoProfile(profile)); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Upsert fully replaces the row keyed by the user id, creating it when
// missing. ReplaceOne keeps the operation atomic: there is no partial-field
// update path.
func (r *MongoProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	_, err := r.coll.ReplaceOne(
		ctx,
		bson.M{"_id": profile.UserID},
		toMongoProfile(profile),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
