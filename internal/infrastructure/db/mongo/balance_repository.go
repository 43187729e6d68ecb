package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homekeeper/household-api/internal/core/domain"
)

const balanceCollection = "balances"

// BalanceRepository reads the ledger's per-user balance rows. The identity
// layer never writes them.
type BalanceRepository struct {
	coll *mongo.Collection
}

func NewBalanceRepository(db *mongo.Database) *BalanceRepository {
	return &BalanceRepository{coll: db.Collection(balanceCollection)}
}

type mongoBalance struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	BalanceSum   float64            `bson:"balance_sum"`
	Currency     string             `bson:"currency"`
	CreationDate int64              `bson:"creation_date"`
}

func (r *BalanceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Balance, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer cur.Close(ctx)

	var balances []domain.Balance
	for cur.Next(ctx) {
		var mb mongoBalance
		if err := cur.Decode(&mb); err != nil {
			return nil, fmt.Errorf("decode balance: %w", err)
		}
		balances = append(balances, domain.Balance{
			ID:           mb.ID.Hex(),
			UserID:       mb.UserID,
			BalanceSum:   mb.BalanceSum,
			Currency:     mb.Currency,
			CreationDate: unixToTime(mb.CreationDate),
		})
	}
	return balances, cur.Err()
}
