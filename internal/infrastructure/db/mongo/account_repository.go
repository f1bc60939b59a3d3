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
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

const collectionUsers = "users"

// AccountRepository stores account rows in the users collection. The
// document id is the identity id.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionUsers)}
}

type accountDoc struct {
	ID             string     `bson:"_id"`
	Username       string     `bson:"username"`
	Email          string     `bson:"email"`
	Role           string     `bson:"role"`
	FullName       string     `bson:"full_name"`
	AssignedBelt   *string    `bson:"assigned_belt,omitempty"`
	Status         string     `bson:"status,omitempty"`
	ApprovalStatus string     `bson:"approval_status"`
	LastLogin      *time.Time `bson:"last_login,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
}

func (d accountDoc) row() ports.AccountRow {
	r := ports.AccountRow(d)
	r.CreatedAt = d.CreatedAt.UTC()
	if d.LastLogin != nil {
		t := d.LastLogin.UTC()
		r.LastLogin = &t
	}
	return r
}

// FindByID returns (nil, nil) when no row exists.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*ports.AccountRow, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	row := doc.row()
	return &row, nil
}

func (r *AccountRepository) Insert(ctx context.Context, row ports.AccountRow) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, accountDoc(row)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: username or email already in use", domain.ErrIdentityExists)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of patch. A missing row yields
// domain.ErrProfileNotFound.
func (r *AccountRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) error {
	set := patchDocument(patch)
	if len(set) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: username or email already in use", domain.ErrInvalidInput)
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// List returns all rows ordered by username.
func (r *AccountRepository) List(ctx context.Context) ([]ports.AccountRow, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	rows := make([]ports.AccountRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, d.row())
	}
	return rows, nil
}

// EnsureIndexes creates the unique username and email indexes.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "approval_status", Value: 1}}},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}

func patchDocument(p domain.AccountPatch) bson.M {
	set := bson.M{}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Role != nil {
		set["role"] = string(*p.Role)
	}
	if p.FullName != nil {
		set["full_name"] = *p.FullName
	}
	if p.AssignedBelt != nil {
		set["assigned_belt"] = *p.AssignedBelt
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.ApprovalStatus != nil {
		set["approval_status"] = string(*p.ApprovalStatus)
	}
	if p.LastLogin != nil {
		set["last_login"] = p.LastLogin.UTC()
	}
	return set
}
