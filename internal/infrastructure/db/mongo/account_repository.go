package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

const accountCollection = "accounts"

type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type accountDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Username          string             `bson:"username"`
	Name              string             `bson:"name"`
	PasswordHash      string             `bson:"password_hash"`
	Role              string             `bson:"role"`
	Email             string             `bson:"email,omitempty"`
	ProfilePictureRef string             `bson:"profile_picture_ref,omitempty"`
	CreatedAt         int64              `bson:"created_at"`
	UpdatedAt         int64              `bson:"updated_at"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                d.ID.Hex(),
		Username:          d.Username,
		Name:              d.Name,
		PasswordHash:      d.PasswordHash,
		Role:              d.Role,
		Email:             d.Email,
		ProfilePictureRef: d.ProfilePictureRef,
		CreatedAt:         unixToTime(d.CreatedAt),
		UpdatedAt:         unixToTime(d.UpdatedAt),
	}
}

// mutableFields is the $set document for an update; the creation timestamp
// and id never change.
func mutableFields(a *domain.Account) bson.M {
	return bson.M{
		"username":            a.Username,
		"name":                a.Name,
		"password_hash":       a.PasswordHash,
		"role":                a.Role,
		"email":               a.Email,
		"profile_picture_ref": a.ProfilePictureRef,
		"updated_at":          a.UpdatedAt.Unix(),
	}
}

// EnsureIndexes creates the unique username index. Idempotent.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, persistenceErr("find account", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, persistenceErr("find account", err)
	}
	return doc.toDomain(), nil
}

// FindAll returns all accounts ordered by creation id ascending.
func (r *AccountRepository) FindAll(ctx context.Context) ([]domain.Account, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, persistenceErr("list accounts", err)
	}
	defer cursor.Close(ctx)

	var accounts []domain.Account
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, persistenceErr("decode account", err)
		}
		accounts = append(accounts, *doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, persistenceErr("list accounts", err)
	}
	return accounts, nil
}

func (r *AccountRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"role": role})
	if err != nil {
		return 0, persistenceErr("count accounts", err)
	}
	return n, nil
}

// Create inserts the account and returns it with the store-assigned id.
// The reserved-name rule is defended here redundantly to the core check.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if domain.IsReservedUsername(account.Username) && account.Role != domain.RoleAdmin {
		return nil, domain.ErrReservedUsername
	}

	doc := accountDoc{
		Username:          account.Username,
		Name:              account.Name,
		PasswordHash:      account.PasswordHash,
		Role:              account.Role,
		Email:             account.Email,
		ProfilePictureRef: account.ProfilePictureRef,
		CreatedAt:         account.CreatedAt.Unix(),
		UpdatedAt:         account.UpdatedAt.Unix(),
	}

	result, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, persistenceErr("insert account", err)
	}

	created := *account
	created.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": mutableFields(account)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUsernameTaken
		}
		return persistenceErr("update account", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DemoteAdmin persists an admin-to-user role change as one conditional store
// operation: inside a single transaction the write only happens when another
// admin account exists, so concurrent demotions cannot leave zero admins.
func (r *AccountRepository) DemoteAdmin(ctx context.Context, account *domain.Account) error {
	oid, err := primitive.ObjectIDFromHex(account.ID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	session, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return persistenceErr("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		n, err := r.coll.CountDocuments(sc, bson.M{
			"role": domain.RoleAdmin,
			"_id":  bson.M{"$ne": oid},
		})
		if err != nil {
			return nil, persistenceErr("count admins", err)
		}
		if n == 0 {
			return nil, domain.ErrLastAdmin
		}

		result, err := r.coll.UpdateOne(sc,
			bson.M{"_id": oid, "role": domain.RoleAdmin},
			bson.M{"$set": mutableFields(account)},
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrUsernameTaken
			}
			return nil, persistenceErr("demote admin", err)
		}
		if result.MatchedCount == 0 {
			return nil, domain.ErrAccountNotFound
		}
		return nil, nil
	})
	return err
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
