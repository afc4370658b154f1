package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fydbak/internal/model"
)

// SurveyRepo handles MongoDB operations for surveys
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) error
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	GetByShortCode(ctx context.Context, code string) (*model.Survey, error)
	ListByManager(ctx context.Context, managerID string) ([]*model.Survey, error)
	SetStatus(ctx context.Context, id string, status model.SurveyStatus) error
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository with indexes
func NewSurveyRepo(ctx context.Context, db *mongo.Database) SurveyRepo {
	r := &surveyRepo{collection: db.Collection("surveys")}
	createIndex(ctx, r.collection, bson.D{{Key: "shortCode", Value: 1}}, true)
	createIndex(ctx, r.collection, bson.D{{Key: "managerId", Value: 1}, {Key: "createdAt", Value: -1}}, false)
	return r
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	now := time.Now().UTC()
	survey.CreatedAt = now
	survey.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, survey)
	return wrapWriteErr(err)
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *surveyRepo) GetByShortCode(ctx context.Context, code string) (*model.Survey, error) {
	return r.findOne(ctx, bson.M{"shortCode": code})
}

func (r *surveyRepo) findOne(ctx context.Context, filter bson.M) (*model.Survey, error) {
	var survey model.Survey
	err := r.collection.FindOne(ctx, filter).Decode(&survey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) ListByManager(ctx context.Context, managerID string) ([]*model.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"managerId": managerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := []*model.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *surveyRepo) SetStatus(ctx context.Context, id string, status model.SurveyStatus) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
