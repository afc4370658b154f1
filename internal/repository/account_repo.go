package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"fydbak/internal/model"
)

// AccountRepo handles MongoDB operations for manager accounts
type AccountRepo interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// IncrementUsage atomically adds one completed session to the monthly counter
	IncrementUsage(ctx context.Context, id string) error
}

type accountRepo struct {
	collection *mongo.Collection
}

// NewAccountRepo creates a new account repository with indexes
func NewAccountRepo(ctx context.Context, db *mongo.Database) AccountRepo {
	r := &accountRepo{collection: db.Collection("accounts")}
	createIndex(ctx, r.collection, bson.D{{Key: "email", Value: 1}}, true)
	return r
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.collection.InsertOne(ctx, account)
	return wrapWriteErr(err)
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountRepo) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	var account model.Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) IncrementUsage(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"responsesUsedThisMonth": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
