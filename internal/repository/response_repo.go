package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fydbak/internal/model"
)

// ResponseRepo handles primary responses and their clarification children
type ResponseRepo interface {
	// Create inserts a primary response; ErrDuplicate if the question was already answered
	Create(ctx context.Context, resp *model.Response) error
	GetBySessionQuestion(ctx context.Context, sessionID, questionID string) (*model.Response, error)
	UpdateAnswer(ctx context.Context, id, answer string, skipped bool) error
	ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error)
	// IncrementClarificationCount bumps the counter unless it already hit the cap
	// and returns the new value. ErrClarificationCap when the cap is reached.
	IncrementClarificationCount(ctx context.Context, responseID string) (int, error)
	// ReleaseClarification undoes an IncrementClarificationCount whose follow-up was never
	// shown, deleting the clarification when clarificationID is set
	ReleaseClarification(ctx context.Context, responseID, clarificationID string) error

	CreateClarification(ctx context.Context, c *model.Clarification) error
	GetClarification(ctx context.Context, id string) (*model.Clarification, error)
	// AnswerClarification records the reply to an open clarification exactly once
	AnswerClarification(ctx context.Context, id, answer string, at time.Time) error
	ListClarificationsBySession(ctx context.Context, sessionID string) ([]*model.Clarification, error)
}

type responseRepo struct {
	responses      *mongo.Collection
	clarifications *mongo.Collection
}

// NewResponseRepo creates a new response repository with indexes
func NewResponseRepo(ctx context.Context, db *mongo.Database) ResponseRepo {
	r := &responseRepo{
		responses:      db.Collection("responses"),
		clarifications: db.Collection("clarifications"),
	}
	createIndex(ctx, r.responses, bson.D{{Key: "sessionId", Value: 1}, {Key: "questionId", Value: 1}}, true)
	createIndex(ctx, r.clarifications, bson.D{{Key: "responseId", Value: 1}, {Key: "attemptNumber", Value: 1}}, true)
	createIndex(ctx, r.clarifications, bson.D{{Key: "sessionId", Value: 1}}, false)
	return r
}

func (r *responseRepo) Create(ctx context.Context, resp *model.Response) error {
	_, err := r.responses.InsertOne(ctx, resp)
	return wrapWriteErr(err)
}

func (r *responseRepo) GetBySessionQuestion(ctx context.Context, sessionID, questionID string) (*model.Response, error) {
	var resp model.Response
	err := r.responses.FindOne(ctx, bson.M{"sessionId": sessionID, "questionId": questionID}).Decode(&resp)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responseRepo) UpdateAnswer(ctx context.Context, id, answer string, skipped bool) error {
	res, err := r.responses.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"answerText": answer, "isSkipped": skipped}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *responseRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "questionIndex", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.responses.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	responses := []*model.Response{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) IncrementClarificationCount(ctx context.Context, responseID string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var resp model.Response
	err := r.responses.FindOneAndUpdate(ctx,
		bson.M{"_id": responseID, "clarificationCount": bson.M{"$lt": model.MaxClarifications}},
		bson.M{"$inc": bson.M{"clarificationCount": 1}},
		opts,
	).Decode(&resp)
	if err == mongo.ErrNoDocuments {
		return 0, ErrClarificationCap
	}
	if err != nil {
		return 0, err
	}
	return resp.ClarificationCount, nil
}

func (r *responseRepo) ReleaseClarification(ctx context.Context, responseID, clarificationID string) error {
	if clarificationID != "" {
		if _, err := r.clarifications.DeleteOne(ctx, bson.M{"_id": clarificationID}); err != nil {
			return err
		}
	}
	_, err := r.responses.UpdateOne(ctx,
		bson.M{"_id": responseID, "clarificationCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"clarificationCount": -1}},
	)
	return err
}

func (r *responseRepo) CreateClarification(ctx context.Context, c *model.Clarification) error {
	_, err := r.clarifications.InsertOne(ctx, c)
	return wrapWriteErr(err)
}

func (r *responseRepo) GetClarification(ctx context.Context, id string) (*model.Clarification, error) {
	var c model.Clarification
	err := r.clarifications.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *responseRepo) AnswerClarification(ctx context.Context, id, answer string, at time.Time) error {
	res, err := r.clarifications.UpdateOne(ctx,
		bson.M{"_id": id, "answerText": nil},
		bson.M{"$set": bson.M{"answerText": answer, "answeredAt": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *responseRepo) ListClarificationsBySession(ctx context.Context, sessionID string) ([]*model.Clarification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.clarifications.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	clarifications := []*model.Clarification{}
	if err := cursor.All(ctx, &clarifications); err != nil {
		return nil, err
	}
	return clarifications, nil
}
