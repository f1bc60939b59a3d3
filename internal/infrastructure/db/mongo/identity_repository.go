package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

const collectionIdentities = "auth_identities"

// IdentityRepository stores sign-in identities. Emails are unique.
type IdentityRepository struct {
	col *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{col: db.Collection(collectionIdentities)}
}

type identityDoc struct {
	ID         string            `bson:"_id"`
	Email      string            `bson:"email"`
	SecretHash string            `bson:"secret_hash"`
	Metadata   map[string]string `bson:"metadata,omitempty"`
	CreatedAt  time.Time         `bson:"created_at"`
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := identityDoc{
		ID:         identity.ID,
		Email:      identity.Email,
		SecretHash: identity.SecretHash,
		Metadata:   identity.Metadata,
		CreatedAt:  identity.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrIdentityExists
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// FindByEmail returns (nil, nil) when no identity has the email.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &domain.Identity{
		ID:         doc.ID,
		Email:      doc.Email,
		SecretHash: doc.SecretHash,
		Metadata:   doc.Metadata,
		CreatedAt:  doc.CreatedAt.UTC(),
	}, nil
}

// Delete removes the identity. Deleting a missing identity is not an error.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("auth_identities indexes: %w", err)
	}
	return nil
}
