package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"fydbak/internal/model"
)

// SummaryRepo handles MongoDB operations for session summaries
type SummaryRepo interface {
	// Insert writes the summary once; ErrDuplicate if the session already has one
	Insert(ctx context.Context, summary *model.SessionSummary) error
	GetBySession(ctx context.Context, sessionID string) (*model.SessionSummary, error)
}

type summaryRepo struct {
	collection *mongo.Collection
}

// NewSummaryRepo creates a new summary repository. The unique sessionId
// index is what makes concurrent inserts for one session safe.
func NewSummaryRepo(ctx context.Context, db *mongo.Database) SummaryRepo {
	r := &summaryRepo{collection: db.Collection("session_summaries")}
	createIndex(ctx, r.collection, bson.D{{Key: "sessionId", Value: 1}}, true)
	return r
}

func (r *summaryRepo) Insert(ctx context.Context, summary *model.SessionSummary) error {
	_, err := r.collection.InsertOne(ctx, summary)
	return wrapWriteErr(err)
}

func (r *summaryRepo) GetBySession(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	var summary model.SessionSummary
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&summary)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
