package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homekeeper/household-api/internal/core/domain"
)

const tokenCollection = "tokens"

// TokenRepository is the mongo-backed token store. Every mutation is a
// single-document operation, so a logout racing the sweep on the same row
// cannot corrupt state.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokenCollection)}
}

type mongoToken struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Value        string             `bson:"value"`
	UserID       string             `bson:"user_id"`
	Username     string             `bson:"username"`
	Active       bool               `bson:"active"`
	CreationDate int64              `bson:"creation_date"`
	ExpiryDate   int64              `bson:"expiry_date"`
}

func (r *TokenRepository) Insert(ctx context.Context, token *domain.Token) error {
	doc := mongoToken{
		Value:        token.Value,
		UserID:       token.UserID,
		Username:     token.Username,
		Active:       token.Active,
		CreationDate: token.CreationDate.Unix(),
		ExpiryDate:   token.ExpiryDate.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByValue(ctx context.Context, value string) (*domain.Token, error) {
	var mt mongoToken
	if err := r.coll.FindOne(ctx, bson.M{"value": value}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	return &domain.Token{
		ID:           mt.ID.Hex(),
		Value:        mt.Value,
		UserID:       mt.UserID,
		Username:     mt.Username,
		Active:       mt.Active,
		CreationDate: unixToTime(mt.CreationDate),
		ExpiryDate:   unixToTime(mt.ExpiryDate),
	}, nil
}

func (r *TokenRepository) Deactivate(ctx context.Context, value string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"value": value},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// DeleteExpired removes every token whose expiry precedes now, active or not.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiry_date": bson.M{"$lt": now.Unix()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteByUser purges all tokens belonging to a user, live or not. Called
// when the account is deleted so no orphan session rows remain.
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}
