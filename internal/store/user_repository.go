package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

const userCollection = "users"

// UserRepo implements domain.UserStore backed by MongoDB.
type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{collection: db.database.Collection(userCollection)}
}

type userDocument struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
	Role  string             `bson:"role"`
}

// FindIdentity resolves a token subject to a minimal identity. Returns
// domain.ErrUserNotFound for unknown or malformed subject ids.
func (r *UserRepo) FindIdentity(ctx context.Context, userID string) (domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.Identity{}, domain.ErrUserNotFound
	}

	var doc userDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Identity{}, domain.ErrUserNotFound
		}
		return domain.Identity{}, fmt.Errorf("user lookup failed: %w", err)
	}

	return domain.Identity{
		ID:    doc.ID.Hex(),
		Name:  doc.Name,
		Role:  domain.Role(doc.Role),
		Email: doc.Email,
	}, nil
}
