package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fydbak/internal/model"
)

var openStatuses = bson.A{model.SessionStarted, model.SessionInProgress}

// SessionRepo handles MongoDB operations for respondent sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// Update replaces a non-terminal session if its version is unchanged
	Update(ctx context.Context, session *model.Session) error
	// Complete moves a non-terminal session at the expected version to completed.
	// It reports false when another caller got there first.
	Complete(ctx context.Context, session *model.Session, at time.Time) (bool, error)
	// Abandon moves any non-terminal session to abandoned
	Abandon(ctx context.Context, id string, at time.Time) (bool, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]*model.Session, error)
	ListIdle(ctx context.Context, before time.Time, limit int64) ([]*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository with indexes
func NewSessionRepo(ctx context.Context, db *mongo.Database) SessionRepo {
	r := &sessionRepo{collection: db.Collection("sessions")}
	createIndex(ctx, r.collection, bson.D{{Key: "surveyId", Value: 1}, {Key: "startedAt", Value: -1}}, false)
	createIndex(ctx, r.collection, bson.D{{Key: "status", Value: 1}, {Key: "lastActivityAt", Value: 1}}, false)
	return r
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return wrapWriteErr(err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	filter := bson.M{
		"_id":     session.ID,
		"version": session.Version,
		"status":  bson.M{"$in": openStatuses},
	}
	next := *session
	next.Version++

	res, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	session.Version = next.Version
	return nil
}

func (r *sessionRepo) Complete(ctx context.Context, session *model.Session, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":     session.ID,
		"version": session.Version,
		"status":  bson.M{"$in": openStatuses},
	}
	update := bson.M{
		"$set": bson.M{
			"status":               model.SessionCompleted,
			"completedAt":          at,
			"lastActivityAt":       at,
			"currentQuestionIndex": session.CurrentQuestionIndex,
		},
		"$unset": bson.M{"openClarificationId": ""},
		"$inc":   bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	session.Status = model.SessionCompleted
	session.CompletedAt = &at
	session.LastActivityAt = at
	session.OpenClarificationID = ""
	session.Version++
	return true, nil
}

func (r *sessionRepo) Abandon(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": openStatuses}},
		bson.M{
			"$set":   bson.M{"status": model.SessionAbandoned, "abandonedAt": at},
			"$unset": bson.M{"openClarificationId": ""},
			"$inc":   bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *sessionRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	return r.find(ctx, bson.M{"surveyId": surveyID}, opts)
}

func (r *sessionRepo) ListIdle(ctx context.Context, before time.Time, limit int64) ([]*model.Session, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "lastActivityAt", Value: 1}}).
		SetLimit(limit)
	return r.find(ctx, bson.M{
		"status":         bson.M{"$in": openStatuses},
		"lastActivityAt": bson.M{"$lt": before},
	}, opts)
}

func (r *sessionRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*model.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
