package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homekeeper/household-api/internal/core/domain"
)

const roleCollection = "roles"

// RoleRepository holds the canonical role records. Labels are immutable and
// shared; users reference them by name.
type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(roleCollection)}
}

type mongoRole struct {
	Name string `bson:"name"`
}

// FindByName returns the canonical role name, or ErrRoleNotFound when the
// record is missing. EnsureDefaults seeds both roles at startup, so a miss
// means the deployment is broken.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (string, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrRoleNotFound
		}
		return "", fmt.Errorf("find role: %w", err)
	}
	return mr.Name, nil
}

// EnsureDefaults upserts the two canonical role records.
func (r *RoleRepository) EnsureDefaults(ctx context.Context) error {
	for _, name := range []string{domain.RoleUser, domain.RoleAdmin} {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{"name": name}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
